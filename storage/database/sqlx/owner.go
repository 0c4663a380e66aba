package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/parikshahq/pariksha/core/owner"
)

type ownerRepository struct {
	db *sqlx.DB
}

var _ owner.Repository = (*ownerRepository)(nil) // interface compliance check

func NewOwnerRepository(db *sqlx.DB) *ownerRepository {
	return &ownerRepository{db: db}
}

func (repo *ownerRepository) CountOwners(ctx context.Context) (int, error) {
	var n int
	if err := repo.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM owners`); err != nil {
		return 0, errors.Wrap(err, "counting owners")
	}
	return n, nil
}

func (repo *ownerRepository) CreateOwner(ctx context.Context, own owner.Owner) (owner.Owner, error) {
	own.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO owners (id, name, email, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		own.ID, own.Name, own.Email, own.PasswordHash, own.CreatedAt, own.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "owners_email_key") {
			return owner.Owner{}, owner.ErrEmailExists
		}
		return owner.Owner{}, errors.Wrap(err, "creating owner")
	}
	return own, nil
}

func (repo *ownerRepository) GetOwner(ctx context.Context, id string) (owner.Owner, error) {
	var own owner.Owner
	err := repo.db.GetContext(ctx, &own,
		`SELECT id, name, email, password_hash, created_at, updated_at FROM owners WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return owner.Owner{}, owner.ErrNotFound
	}
	if err != nil {
		return owner.Owner{}, errors.Wrap(err, "getting owner")
	}
	return own, nil
}

func (repo *ownerRepository) GetOwnerByEmail(ctx context.Context, email string) (owner.Owner, error) {
	var own owner.Owner
	err := repo.db.GetContext(ctx, &own,
		`SELECT id, name, email, password_hash, created_at, updated_at FROM owners WHERE email = $1`, email)
	if err == sql.ErrNoRows {
		return owner.Owner{}, owner.ErrNotFound
	}
	if err != nil {
		return owner.Owner{}, errors.Wrap(err, "getting owner by email")
	}
	return own, nil
}

func (repo *ownerRepository) UpdateOwner(ctx context.Context, own owner.Owner) (owner.Owner, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE owners SET name = $2, email = $3, password_hash = $4, updated_at = $5 WHERE id = $1`,
		own.ID, own.Name, own.Email, own.PasswordHash, own.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "owners_email_key") {
			return owner.Owner{}, owner.ErrEmailExists
		}
		return owner.Owner{}, errors.Wrap(err, "updating owner")
	}
	if n, err := res.RowsAffected(); err != nil {
		return owner.Owner{}, errors.Wrap(err, "updating owner")
	} else if n == 0 {
		return owner.Owner{}, owner.ErrNotFound
	}
	return own, nil
}
