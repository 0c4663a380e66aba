package main

import (
	"context"
	"time"

	"github.com/parikshahq/pariksha/core"
	"github.com/parikshahq/pariksha/core/owner"
)

// addOwner updates or creates the Owner account. With core.Conf.SingleOwner
// set, creating a second owner under a different email is refused.
func (cli *commandLine) addOwner(name, email, pwd string) error {
	ctx := context.Background()
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)

	own, err := cli.ownRepo.GetOwnerByEmail(ctx, email)
	if err != nil {
		if err != owner.ErrNotFound {
			return err
		}
		if core.Conf.SingleOwner {
			n, err := cli.ownRepo.CountOwners(ctx)
			if err != nil {
				return err
			}
			if n > 0 {
				return owner.ErrOwnerExists
			}
		}
		now := time.Now().UTC()
		own = owner.Owner{
			Name:      name,
			Email:     email,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := own.SetPassword(pwd); err != nil {
			return err
		}
		_, err = cli.ownRepo.CreateOwner(ctx, own)
		return err
	}

	own.Name = name
	if err := own.SetPassword(pwd); err != nil {
		return err
	}
	own.UpdatedAt = time.Now().UTC()
	_, err = cli.ownRepo.UpdateOwner(ctx, own)
	return err
}
