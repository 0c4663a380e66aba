package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/parikshahq/pariksha/core/institute"
)

const instituteColumns = `id, owner_name, institute_name, short_name, email, phone, unique_id,
	logo_url, iso_cert_url, password_hash, created_at, updated_at`

type instituteRepository struct {
	db *sqlx.DB
}

var _ institute.Repository = (*instituteRepository)(nil) // interface compliance check

func NewInstituteRepository(db *sqlx.DB) *instituteRepository {
	return &instituteRepository{db: db}
}

// loadRefs fills the derived student and exam id lists.
func (repo *instituteRepository) loadRefs(ctx context.Context, inst *institute.Institute) error {
	inst.StudentIDs = make([]string, 0)
	if err := repo.db.SelectContext(ctx, &inst.StudentIDs,
		`SELECT id FROM students WHERE institute_id = $1 ORDER BY created_at, id`, inst.ID); err != nil {
		return errors.Wrap(err, "loading student refs")
	}
	inst.ExamIDs = make([]string, 0)
	if err := repo.db.SelectContext(ctx, &inst.ExamIDs,
		`SELECT id FROM exams WHERE institute_id = $1 ORDER BY created_at, id`, inst.ID); err != nil {
		return errors.Wrap(err, "loading exam refs")
	}
	return nil
}

func (repo *instituteRepository) CheckUniqueness(ctx context.Context, email, uniqueID string, excluded ...institute.Institute) error {
	q := `SELECT email, unique_id FROM institutes WHERE (email = ? OR unique_id = ?)`
	args := []interface{}{email, uniqueID}
	if len(excluded) > 0 {
		ids := make([]string, len(excluded))
		for i, inst := range excluded {
			ids[i] = inst.ID
		}
		var err error
		if q, args, err = sqlx.In(q+` AND id NOT IN (?)`, email, uniqueID, ids); err != nil {
			return errors.Wrap(err, "checking institute uniqueness")
		}
	}

	var rows []struct {
		Email    string `db:"email"`
		UniqueID string `db:"unique_id"`
	}
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "checking institute uniqueness")
	}
	for _, row := range rows {
		if row.Email == email {
			return institute.ErrEmailExists
		}
		if row.UniqueID == uniqueID {
			return institute.ErrUniqueIDExists
		}
	}
	return nil
}

func (repo *instituteRepository) CreateInstitute(ctx context.Context, inst institute.Institute) (institute.Institute, error) {
	inst.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO institutes (`+instituteColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		inst.ID, inst.OwnerName, inst.InstituteName, inst.ShortName, inst.Email, inst.Phone,
		inst.UniqueID, inst.LogoURL, inst.ISOCertURL, inst.PasswordHash, inst.CreatedAt, inst.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "institutes_email_key") {
			return institute.Institute{}, institute.ErrEmailExists
		}
		if isUniqueViolation(err, "institutes_unique_id_key") {
			return institute.Institute{}, institute.ErrUniqueIDExists
		}
		return institute.Institute{}, errors.Wrap(err, "creating institute")
	}
	inst.StudentIDs = make([]string, 0)
	inst.ExamIDs = make([]string, 0)
	return inst, nil
}

func (repo *instituteRepository) QueryAllInstitutes(ctx context.Context) ([]institute.Institute, error) {
	institutes := make([]institute.Institute, 0)
	err := repo.db.SelectContext(ctx, &institutes,
		`SELECT `+instituteColumns+` FROM institutes ORDER BY created_at, id`)
	if err != nil {
		return nil, errors.Wrap(err, "querying institutes")
	}
	for i := range institutes {
		if err := repo.loadRefs(ctx, &institutes[i]); err != nil {
			return nil, err
		}
	}
	return institutes, nil
}

func (repo *instituteRepository) get(ctx context.Context, where string, arg interface{}) (institute.Institute, error) {
	var inst institute.Institute
	err := repo.db.GetContext(ctx, &inst,
		`SELECT `+instituteColumns+` FROM institutes WHERE `+where, arg)
	if err == sql.ErrNoRows {
		return institute.Institute{}, institute.ErrNotFound
	}
	if err != nil {
		return institute.Institute{}, errors.Wrap(err, "getting institute")
	}
	if err := repo.loadRefs(ctx, &inst); err != nil {
		return institute.Institute{}, err
	}
	return inst, nil
}

func (repo *instituteRepository) GetInstitute(ctx context.Context, id string) (institute.Institute, error) {
	return repo.get(ctx, `id = $1`, id)
}

func (repo *instituteRepository) GetInstituteByEmail(ctx context.Context, email string) (institute.Institute, error) {
	return repo.get(ctx, `email = $1`, email)
}

func (repo *instituteRepository) GetInstituteByUniqueID(ctx context.Context, uniqueID string) (institute.Institute, error) {
	return repo.get(ctx, `unique_id = $1`, uniqueID)
}

func (repo *instituteRepository) UpdateInstitute(ctx context.Context, inst institute.Institute) (institute.Institute, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE institutes
		 SET owner_name = $2, institute_name = $3, short_name = $4, email = $5, phone = $6,
		     unique_id = $7, logo_url = $8, iso_cert_url = $9, password_hash = $10, updated_at = $11
		 WHERE id = $1`,
		inst.ID, inst.OwnerName, inst.InstituteName, inst.ShortName, inst.Email, inst.Phone,
		inst.UniqueID, inst.LogoURL, inst.ISOCertURL, inst.PasswordHash, inst.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "institutes_email_key") {
			return institute.Institute{}, institute.ErrEmailExists
		}
		if isUniqueViolation(err, "institutes_unique_id_key") {
			return institute.Institute{}, institute.ErrUniqueIDExists
		}
		return institute.Institute{}, errors.Wrap(err, "updating institute")
	}
	if n, err := res.RowsAffected(); err != nil {
		return institute.Institute{}, errors.Wrap(err, "updating institute")
	} else if n == 0 {
		return institute.Institute{}, institute.ErrNotFound
	}
	if err := repo.loadRefs(ctx, &inst); err != nil {
		return institute.Institute{}, err
	}
	return inst, nil
}

func (repo *instituteRepository) DeleteInstitute(ctx context.Context, id string) error {
	// students, exams, questions and typing tests go with it (ON DELETE CASCADE)
	res, err := repo.db.ExecContext(ctx, `DELETE FROM institutes WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting institute")
	}
	if n, err := res.RowsAffected(); err != nil {
		return errors.Wrap(err, "deleting institute")
	} else if n == 0 {
		return institute.ErrNotFound
	}
	return nil
}
