package student

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/parikshahq/pariksha/core"
)

// Student belongs to exactly one Institute. Roll numbers are unique within an
// institute, not globally.
//
// Score and Passed mirror the student's latest scored exam only; the full
// history lives in each exam's result ledger.
type Student struct {
	ID              string    `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	InstituteID     string    `json:"institute" db:"institute_id"`
	RollNumber      string    `json:"roll_number" db:"roll_number"`
	DateOfBirth     string    `json:"date_of_birth,omitempty" db:"date_of_birth"`
	ProfileImageURL string    `json:"profile_image_url,omitempty" db:"profile_image_url"`
	PasswordHash    []byte    `json:"-" db:"password_hash"`
	ExamsTaken      []string  `json:"exams_taken" db:"-"`
	Score           float64   `json:"score" db:"score"`
	Passed          bool      `json:"passed" db:"passed"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"` // UTC
}

func (s *Student) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	s.PasswordHash = hash
	return nil
}

func (s *Student) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(s.PasswordHash, []byte(pwd))
}

// HasTaken reports whether the exam is already in the student's taken list.
func (s *Student) HasTaken(examID string) bool {
	for _, id := range s.ExamsTaken {
		if id == examID {
			return true
		}
	}
	return false
}

// NewStudent contains information needed to enroll a new Student.
type NewStudent struct {
	Name        string `json:"name" form:"name" validate:"required"`
	RollNumber  string `json:"roll_number" form:"roll_number" validate:"required,rollnum"`
	DateOfBirth string `json:"date_of_birth" form:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Password    string `json:"password" form:"password" validate:"required,min=8"`

	// set by the handler after the upload is stored, never bound from the request
	ProfileImageURL string `json:"-" form:"-"`
}

func (ns *NewStudent) Validate(ctx context.Context, instituteID string, svc *Service) error {
	ns.Name = core.CleanString(ns.Name)
	ns.RollNumber = core.CleanString(ns.RollNumber)

	if err := core.Validate.Struct(ns); err != nil {
		return err
	}
	return svc.CheckRollNumberUniqueness(ctx, instituteID, ns.RollNumber)
}

// UpdateStudent defines what information may be provided to modify an existing
// Student. Absent fields are left untouched; passwords are never changed here.
type UpdateStudent struct {
	Name        null.String `json:"name" form:"name"`
	RollNumber  null.String `json:"roll_number" form:"roll_number" validate:"omitempty,rollnum"`
	DateOfBirth null.String `json:"date_of_birth" form:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`

	ProfileImageURL string `json:"-" form:"-"`
}

func (us *UpdateStudent) Validate(ctx context.Context, orig Student, svc *Service) error {
	if us.Name.Valid {
		us.Name.String = core.CleanString(us.Name.String)
	}
	if us.RollNumber.Valid {
		us.RollNumber.String = core.CleanString(us.RollNumber.String)
	}

	if err := core.Validate.Struct(us); err != nil {
		return err
	}

	if us.RollNumber.Valid && us.RollNumber.String != orig.RollNumber {
		return svc.CheckRollNumberUniqueness(ctx, orig.InstituteID, us.RollNumber.String, orig)
	}
	return nil
}
