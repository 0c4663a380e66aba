package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/parikshahq/pariksha/core/owner"
)

type ownerRepository struct {
	db *DB
}

var _ owner.Repository = (*ownerRepository)(nil) // interface compliance check

func NewOwnerRepository(db *DB) *ownerRepository {
	return &ownerRepository{db: db}
}

func (repo *ownerRepository) CountOwners(_ context.Context) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return len(repo.db.owners), nil
}

func (repo *ownerRepository) CreateOwner(_ context.Context, own owner.Owner) (owner.Owner, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	own.ID = uuid.New().String()
	repo.db.owners[own.ID] = &own
	return own, nil
}

func (repo *ownerRepository) GetOwner(_ context.Context, id string) (owner.Owner, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if own, ok := repo.db.owners[id]; ok {
		return *own, nil
	}
	return owner.Owner{}, owner.ErrNotFound
}

func (repo *ownerRepository) GetOwnerByEmail(_ context.Context, email string) (owner.Owner, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, own := range repo.db.owners {
		if own.Email == email {
			return *own, nil
		}
	}
	return owner.Owner{}, owner.ErrNotFound
}

func (repo *ownerRepository) UpdateOwner(_ context.Context, own owner.Owner) (owner.Owner, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.owners[own.ID]; !ok {
		return owner.Owner{}, owner.ErrNotFound
	}
	repo.db.owners[own.ID] = &own
	return own, nil
}
