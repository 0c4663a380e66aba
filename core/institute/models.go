package institute

import (
	"context"

	"time"

	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/parikshahq/pariksha/core"
)

// Institute is a tenant: it owns its students and exams (cascading delete).
type Institute struct {
	ID            string    `json:"id" db:"id"`
	OwnerName     string    `json:"owner_name" db:"owner_name"`
	InstituteName string    `json:"institute_name" db:"institute_name"`
	ShortName     string    `json:"short_name,omitempty" db:"short_name"`
	Email         string    `json:"email" db:"email"`
	Phone         string    `json:"phone,omitempty" db:"phone"`
	UniqueID      string    `json:"unique_id" db:"unique_id"`
	LogoURL       string    `json:"logo_url,omitempty" db:"logo_url"`
	ISOCertURL    string    `json:"iso_cert_url,omitempty" db:"iso_cert_url"`
	PasswordHash  []byte    `json:"-" db:"password_hash"`
	StudentIDs    []string  `json:"students" db:"-"`
	ExamIDs       []string  `json:"exams" db:"-"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"` // UTC
}

func (inst *Institute) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	inst.PasswordHash = hash
	return nil
}

func (inst *Institute) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(inst.PasswordHash, []byte(pwd))
}

// NewInstitute contains information needed to register a new Institute.
type NewInstitute struct {
	OwnerName       string `json:"owner_name" form:"owner_name" validate:"required"`
	InstituteName   string `json:"institute_name" form:"institute_name" validate:"required"`
	ShortName       string `json:"short_name" form:"short_name"`
	Email           string `json:"email" form:"email" validate:"required,email"`
	Phone           string `json:"phone" form:"phone" validate:"omitempty,numeric,len=10"`
	UniqueID        string `json:"unique_id" form:"unique_id" validate:"required,alphanum_"`
	Password        string `json:"password" form:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" form:"password_confirm" validate:"required,eqfield=Password"`

	// set by the handler after the uploads are stored, never bound from the request
	LogoURL    string `json:"-" form:"-"`
	ISOCertURL string `json:"-" form:"-"`
}

func (ni *NewInstitute) Validate(ctx context.Context, svc *Service) error {
	ni.OwnerName = core.CleanString(ni.OwnerName)
	ni.InstituteName = core.CleanString(ni.InstituteName)
	ni.ShortName = core.CleanString(ni.ShortName)
	ni.Email = core.CleanString(ni.Email, true /* lower */)
	ni.UniqueID = core.CleanString(ni.UniqueID)

	if err := core.Validate.Struct(ni); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, ni.Email, ni.UniqueID)
}

// UpdateInstitute defines what information may be provided to modify an
// existing Institute. Absent fields are left untouched.
type UpdateInstitute struct {
	OwnerName     null.String `json:"owner_name" form:"owner_name"`
	InstituteName null.String `json:"institute_name" form:"institute_name"`
	ShortName     null.String `json:"short_name" form:"short_name"`
	Email         null.String `json:"email" form:"email" validate:"omitempty,email"`
	Phone         null.String `json:"phone" form:"phone" validate:"omitempty,numeric,len=10"`
	UniqueID      null.String `json:"unique_id" form:"unique_id" validate:"omitempty,alphanum_"`

	LogoURL    string `json:"-" form:"-"`
	ISOCertURL string `json:"-" form:"-"`
}

func (ui *UpdateInstitute) Validate(ctx context.Context, orig Institute, svc *Service) error {
	if ui.OwnerName.Valid {
		ui.OwnerName.String = core.CleanString(ui.OwnerName.String)
	}
	if ui.InstituteName.Valid {
		ui.InstituteName.String = core.CleanString(ui.InstituteName.String)
	}
	if ui.Email.Valid {
		ui.Email.String = core.CleanString(ui.Email.String, true /* lower */)
	}
	if ui.UniqueID.Valid {
		ui.UniqueID.String = core.CleanString(ui.UniqueID.String)
	}

	if err := core.Validate.Struct(ui); err != nil {
		return err
	}

	email := orig.Email
	if ui.Email.Valid {
		email = ui.Email.String
	}
	uid := orig.UniqueID
	if ui.UniqueID.Valid {
		uid = ui.UniqueID.String
	}
	return svc.CheckUniqueness(ctx, email, uid, orig)
}
