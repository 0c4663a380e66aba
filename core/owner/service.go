package owner

import (
	"context"
	"errors"
	"time"

	"github.com/parikshahq/pariksha/core"
)

var (
	// errors
	ErrNotFound    = errors.New("owner not found")
	ErrEmailExists = errors.New("an owner with this email already exists")
	ErrOwnerExists = errors.New("an owner account already exists")
)

type (
	Repository interface {
		CountOwners(ctx context.Context) (int, error)
		CreateOwner(ctx context.Context, own Owner) (Owner, error)
		GetOwner(ctx context.Context, id string) (Owner, error)
		GetOwnerByEmail(ctx context.Context, email string) (Owner, error)
		UpdateOwner(ctx context.Context, own Owner) (Owner, error)
	}

	Service struct {
		conf *core.Config
		repo Repository
	}
)

func NewService(conf *core.Config, repo Repository) *Service {
	return &Service{conf: conf, repo: repo}
}

// Bootstrap creates the Owner account. With conf.SingleOwner set, a second
// call fails with ErrOwnerExists regardless of email.
func (svc *Service) Bootstrap(ctx context.Context, no NewOwner) (Owner, error) {
	if svc.conf.SingleOwner {
		n, err := svc.repo.CountOwners(ctx)
		if err != nil {
			return Owner{}, err
		}
		if n > 0 {
			return Owner{}, core.NewValidationError(ErrOwnerExists)
		}
	}
	if _, err := svc.repo.GetOwnerByEmail(ctx, no.Email); err == nil {
		return Owner{}, core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
	} else if err != ErrNotFound {
		return Owner{}, err
	}

	now := time.Now().UTC()
	own := Owner{
		Name:      no.Name,
		Email:     no.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := own.SetPassword(no.Password); err != nil {
		return Owner{}, err
	}
	return svc.repo.CreateOwner(ctx, own)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Owner, error) {
	return svc.repo.GetOwner(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (Owner, error) {
	return svc.repo.GetOwnerByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *Service) SetPassword(ctx context.Context, own Owner, pwd string) (Owner, error) {
	if err := own.SetPassword(pwd); err != nil {
		return Owner{}, err
	}
	own.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateOwner(ctx, own)
}
