package owner

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/parikshahq/pariksha/core"
)

// Owner is the platform operator. When core.Conf.SingleOwner is set (the
// default), at most one Owner may ever exist.
type Owner struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash []byte    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"` // UTC
}

func (o *Owner) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	o.PasswordHash = hash
	return nil
}

func (o *Owner) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(o.PasswordHash, []byte(pwd))
}

// NewOwner contains information needed to bootstrap the Owner account.
type NewOwner struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (no *NewOwner) Validate() error {
	no.Name = core.CleanString(no.Name)
	no.Email = core.CleanString(no.Email, true /* lower */)
	return core.Validate.Struct(no)
}
