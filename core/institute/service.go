package institute

import (
	"context"
	"errors"
	"net/mail"
	"time"

	"github.com/parikshahq/pariksha/core"
)

var (
	// errors
	ErrNotFound       = errors.New("institute not found")
	ErrEmailExists    = errors.New("an institute with this email already exists")
	ErrUniqueIDExists = errors.New("an institute with this unique ID already exists")
)

type (
	Repository interface {
		// CheckUniqueness fails with ErrEmailExists or ErrUniqueIDExists when
		// another institute (not in excluded) already holds email or uniqueID.
		CheckUniqueness(ctx context.Context, email, uniqueID string, excluded ...Institute) error
		CreateInstitute(ctx context.Context, inst Institute) (Institute, error)
		QueryAllInstitutes(ctx context.Context) ([]Institute, error)
		GetInstitute(ctx context.Context, id string) (Institute, error)
		GetInstituteByEmail(ctx context.Context, email string) (Institute, error)
		GetInstituteByUniqueID(ctx context.Context, uniqueID string) (Institute, error)
		UpdateInstitute(ctx context.Context, inst Institute) (Institute, error)
		// DeleteInstitute removes the institute and cascades to all of its
		// students, exams, questions and typing tests atomically.
		DeleteInstitute(ctx context.Context, id string) error
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
	}
)

func NewService(repo Repository, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, mailSvc: mailSvc}
}

func (svc *Service) CheckUniqueness(ctx context.Context, email, uniqueID string, excluded ...Institute) error {
	if err := svc.repo.CheckUniqueness(ctx, email, uniqueID, excluded...); err != nil {
		var field string
		switch err {
		case ErrEmailExists:
			field = "email"
		case ErrUniqueIDExists:
			field = "unique_id"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, ni NewInstitute) (Institute, error) {
	now := time.Now().UTC()
	inst := Institute{
		OwnerName:     ni.OwnerName,
		InstituteName: ni.InstituteName,
		ShortName:     ni.ShortName,
		Email:         ni.Email,
		Phone:         ni.Phone,
		UniqueID:      ni.UniqueID,
		LogoURL:       ni.LogoURL,
		ISOCertURL:    ni.ISOCertURL,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := inst.SetPassword(ni.Password); err != nil {
		return Institute{}, err
	}

	inst, err := svc.repo.CreateInstitute(ctx, inst)
	if err != nil {
		return Institute{}, err
	}
	svc.sendWelcomeEmail(inst)
	return inst, nil
}

func (svc *Service) QueryAll(ctx context.Context) ([]Institute, error) {
	return svc.repo.QueryAllInstitutes(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Institute, error) {
	return svc.repo.GetInstitute(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (Institute, error) {
	return svc.repo.GetInstituteByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *Service) GetByUniqueID(ctx context.Context, uniqueID string) (Institute, error) {
	return svc.repo.GetInstituteByUniqueID(ctx, core.CleanString(uniqueID))
}

// Update applies a partial edit: only set fields overwrite existing values.
func (svc *Service) Update(ctx context.Context, orig Institute, ui UpdateInstitute) (Institute, error) {
	inst := orig
	if ui.OwnerName.Valid {
		inst.OwnerName = ui.OwnerName.String
	}
	if ui.InstituteName.Valid {
		inst.InstituteName = ui.InstituteName.String
	}
	if ui.ShortName.Valid {
		inst.ShortName = ui.ShortName.String
	}
	if ui.Email.Valid {
		inst.Email = ui.Email.String
	}
	if ui.Phone.Valid {
		inst.Phone = ui.Phone.String
	}
	if ui.UniqueID.Valid {
		inst.UniqueID = ui.UniqueID.String
	}
	if ui.LogoURL != "" {
		inst.LogoURL = ui.LogoURL
	}
	if ui.ISOCertURL != "" {
		inst.ISOCertURL = ui.ISOCertURL
	}
	inst.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateInstitute(ctx, inst)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteInstitute(ctx, id)
}

func (svc *Service) sendWelcomeEmail(inst Institute) {
	if svc.mailSvc == nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: inst.OwnerName, Address: inst.Email}},
		Subject:      "Welcome to " + core.Conf.AppName,
		TemplateName: "institute-welcome",
		TemplateData: struct {
			OwnerName     string
			InstituteName string
			UniqueID      string
		}{inst.OwnerName, inst.InstituteName, inst.UniqueID},
	})
}
