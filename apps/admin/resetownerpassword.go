package main

import (
	"context"
	"time"

	"github.com/parikshahq/pariksha/core"
)

func (cli *commandLine) resetOwnerPassword(email, pwd string) error {
	ctx := context.Background()
	own, err := cli.ownRepo.GetOwnerByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}
	if err := own.SetPassword(pwd); err != nil {
		return err
	}
	own.UpdatedAt = time.Now().UTC()
	_, err = cli.ownRepo.UpdateOwner(ctx, own)
	return err
}
