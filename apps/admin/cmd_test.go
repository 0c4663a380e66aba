package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strconv"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/parikshahq/pariksha/core/owner"
	inmemdb "github.com/parikshahq/pariksha/storage/database/inmem"
)

var ownRepo owner.Repository

func setup(t *testing.T) *commandLine {
	t.Helper()

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() failed, %v", err)
	}
	ownRepo = inmemdb.NewOwnerRepository(db)

	return &commandLine{
		db:      &sqlx.DB{}, // migrate is mocked; never touched
		ownRepo: ownRepo,
	}
}

func createOwner(t *testing.T, name, email, pwd string) owner.Owner {
	t.Helper()

	own := owner.Owner{Name: name, Email: email}
	if err := own.SetPassword(pwd); err != nil {
		t.Fatalf("SetPassword() failed, %v", err)
	}
	own, err := ownRepo.CreateOwner(context.Background(), own)
	if err != nil {
		t.Fatalf("CreateOwner() failed, %v", err)
	}
	return own
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					if err != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			}
		})
	}
}

func Test_commandLine_addOwner(t *testing.T) {
	cli := setup(t)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"addowner"}, wantErr: errHelp},
		{name: "name but no email", args: []string{"addowner", "-name", "Boss"}, wantErr: errHelp},
		{name: "no password", args: []string{"addowner", "-name", "Boss", "-email", "boss@test.cd"}, wantErr: errHelp},
		{name: "create", args: []string{"addowner", "-name", "Boss", "-email", "boss@test.cd"}, extra: extra{pwd: "s3cr3t!pwd"}},
		{name: "update existing", args: []string{"addowner", "-name", "Big Boss", "-email", "boss@test.cd"}, extra: extra{pwd: "n3w!pwd"}},
		{name: "second owner refused", args: []string{"addowner", "-name", "Rival", "-email", "rival@test.cd"}, extra: extra{pwd: "lolz!pwd"}, wantErr: owner.ErrOwnerExists},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				own, err := ownRepo.GetOwnerByEmail(context.Background(), "boss@test.cd")
				if err != nil {
					t.Fatalf("GetOwnerByEmail() failed, %v", err)
				}
				if own.CheckPassword(tt.extra.(extra).pwd) != nil {
					t.Error("failed to set password")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_resetOwnerPassword(t *testing.T) {
	cli := setup(t)

	own := createOwner(t, "Boss", "boss@test.cd", "mdr")

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"resetownerpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetownerpassword", "-email", "lol@test.cd"}, wantErr: errHelp},
		{name: "owner not found", args: []string{"resetownerpassword", "-email", "lol@test.cd"}, extra: extra{pwd: "lol"}, wantErr: owner.ErrNotFound},
		{name: "reset", args: []string{"resetownerpassword", "-email", own.Email}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				refreshed, err := ownRepo.GetOwner(context.Background(), own.ID)
				if err != nil {
					t.Fatalf("GetOwner() failed, %v", err)
				}
				if bytes.Equal(refreshed.PasswordHash, own.PasswordHash) {
					t.Error("failed to update new password")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
