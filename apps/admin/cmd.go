package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/parikshahq/pariksha/core/owner"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db      *sqlx.DB
	ownRepo owner.Repository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  addowner -name NAME -email EMAIL       - create or update the owner account")
	fmt.Println("  resetownerpassword -email EMAIL        - reset the owner's password")
	fmt.Println("  migrate COMMAND [args]                 - run DB migrations (goose commands)")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addOwnerCmd := flag.NewFlagSet("addowner", flag.ExitOnError)
	addOwnerName := addOwnerCmd.String("name", "", "The owner's full name.")
	addOwnerEmail := addOwnerCmd.String("email", "", "The owner's email. The password will be prompted next.")

	resetPasswordCmd := flag.NewFlagSet("resetownerpassword", flag.ExitOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The owner's email. The password will be prompted next.")

	switch args[1] {
	case "addowner":
		if err := addOwnerCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addOwnerName == "" || *addOwnerEmail == "" {
			addOwnerCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			addOwnerCmd.Usage()
			return errHelp
		}
		return cli.addOwner(*addOwnerName, *addOwnerEmail, string(pwd))
	case "resetownerpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetOwnerPassword(*resetPasswordEmail, string(pwd))
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() ([]byte, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	return pwd, err
}
