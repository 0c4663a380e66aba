package student

import (
	"context"
	"errors"
	"net/mail"
	"time"

	"github.com/parikshahq/pariksha/core"
	"github.com/parikshahq/pariksha/core/institute"
)

var (
	// errors
	ErrNotFound         = errors.New("student not found")
	ErrRollNumberExists = errors.New("a student with this roll number already exists in this institute")
)

type (
	Repository interface {
		// CheckRollNumberUniqueness fails with ErrRollNumberExists when another
		// student (not in excluded) of the institute holds rollNumber.
		CheckRollNumberUniqueness(ctx context.Context, instituteID, rollNumber string, excluded ...Student) error
		// CreateStudent persists the student and appends its id to the owning
		// institute's student list in the same operation.
		CreateStudent(ctx context.Context, stu Student) (Student, error)
		QueryStudentsByInstitute(ctx context.Context, instituteID string) ([]Student, error)
		GetStudent(ctx context.Context, id string) (Student, error)
		GetStudentByRollNumber(ctx context.Context, instituteID, rollNumber string) (Student, error)
		UpdateStudent(ctx context.Context, stu Student) (Student, error)
		// DeleteStudent removes the student and its reference from the owning
		// institute atomically.
		DeleteStudent(ctx context.Context, id string) error
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
	}
)

func NewService(repo Repository, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, mailSvc: mailSvc}
}

func (svc *Service) CheckRollNumberUniqueness(ctx context.Context, instituteID, rollNumber string, excluded ...Student) error {
	if err := svc.repo.CheckRollNumberUniqueness(ctx, instituteID, rollNumber, excluded...); err != nil {
		if err == ErrRollNumberExists {
			return core.NewValidationError(err, core.FieldError{Field: "roll_number", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Create enrolls a new student into inst and mails the credentials to the
// institute. The plaintext password is not retained anywhere.
func (svc *Service) Create(ctx context.Context, inst institute.Institute, ns NewStudent) (Student, error) {
	now := time.Now().UTC()
	stu := Student{
		Name:            ns.Name,
		InstituteID:     inst.ID,
		RollNumber:      ns.RollNumber,
		DateOfBirth:     ns.DateOfBirth,
		ProfileImageURL: ns.ProfileImageURL,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := stu.SetPassword(ns.Password); err != nil {
		return Student{}, err
	}

	stu, err := svc.repo.CreateStudent(ctx, stu)
	if err != nil {
		return Student{}, err
	}
	svc.sendCredentialsEmail(inst, stu)
	return stu, nil
}

func (svc *Service) QueryByInstitute(ctx context.Context, instituteID string) ([]Student, error) {
	return svc.repo.QueryStudentsByInstitute(ctx, instituteID)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudent(ctx, id)
}

func (svc *Service) GetByRollNumber(ctx context.Context, instituteID, rollNumber string) (Student, error) {
	return svc.repo.GetStudentByRollNumber(ctx, instituteID, core.CleanString(rollNumber))
}

// Update applies a partial edit: only set fields overwrite existing values.
func (svc *Service) Update(ctx context.Context, orig Student, us UpdateStudent) (Student, error) {
	stu := orig
	if us.Name.Valid {
		stu.Name = us.Name.String
	}
	if us.RollNumber.Valid {
		stu.RollNumber = us.RollNumber.String
	}
	if us.DateOfBirth.Valid {
		stu.DateOfBirth = us.DateOfBirth.String
	}
	if us.ProfileImageURL != "" {
		stu.ProfileImageURL = us.ProfileImageURL
	}
	stu.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateStudent(ctx, stu)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteStudent(ctx, id)
}

func (svc *Service) sendCredentialsEmail(inst institute.Institute, stu Student) {
	if svc.mailSvc == nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: inst.InstituteName, Address: inst.Email}},
		Subject:      "Student account created: " + stu.Name,
		TemplateName: "student-enrolled",
		TemplateData: struct {
			StudentName string
			RollNumber  string
		}{stu.Name, stu.RollNumber},
	})
}
