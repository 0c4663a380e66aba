package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/parikshahq/pariksha/core/institute"
)

type instituteRepository struct {
	db *DB
}

var _ institute.Repository = (*instituteRepository)(nil) // interface compliance check

func NewInstituteRepository(db *DB) *instituteRepository {
	return &instituteRepository{db: db}
}

func (repo *instituteRepository) clone(inst *institute.Institute) institute.Institute {
	out := *inst
	out.StudentIDs = copyStrings(inst.StudentIDs)
	out.ExamIDs = copyStrings(inst.ExamIDs)
	return out
}

func (repo *instituteRepository) CheckUniqueness(_ context.Context, email, uniqueID string, excluded ...institute.Institute) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, inst := range repo.db.institutes {
		if isExcludedInstitute(*inst, excluded) {
			continue
		}
		if inst.Email == email {
			return institute.ErrEmailExists
		}
		if inst.UniqueID == uniqueID {
			return institute.ErrUniqueIDExists
		}
	}
	return nil
}

func (repo *instituteRepository) CreateInstitute(_ context.Context, inst institute.Institute) (institute.Institute, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	inst.ID = uuid.New().String()
	inst.StudentIDs = copyStrings(inst.StudentIDs)
	inst.ExamIDs = copyStrings(inst.ExamIDs)
	repo.db.institutes[inst.ID] = &inst
	return repo.clone(&inst), nil
}

func (repo *instituteRepository) QueryAllInstitutes(_ context.Context) ([]institute.Institute, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	insts := make([]institute.Institute, 0, len(repo.db.institutes))
	for _, inst := range repo.db.institutes {
		insts = append(insts, repo.clone(inst))
	}
	sort.Slice(insts, func(i, j int) bool { return insts[i].CreatedAt.Before(insts[j].CreatedAt) })
	return insts, nil
}

func (repo *instituteRepository) GetInstitute(_ context.Context, id string) (institute.Institute, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if inst, ok := repo.db.institutes[id]; ok {
		return repo.clone(inst), nil
	}
	return institute.Institute{}, institute.ErrNotFound
}

func (repo *instituteRepository) GetInstituteByEmail(_ context.Context, email string) (institute.Institute, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, inst := range repo.db.institutes {
		if inst.Email == email {
			return repo.clone(inst), nil
		}
	}
	return institute.Institute{}, institute.ErrNotFound
}

func (repo *instituteRepository) GetInstituteByUniqueID(_ context.Context, uniqueID string) (institute.Institute, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, inst := range repo.db.institutes {
		if inst.UniqueID == uniqueID {
			return repo.clone(inst), nil
		}
	}
	return institute.Institute{}, institute.ErrNotFound
}

func (repo *instituteRepository) UpdateInstitute(_ context.Context, inst institute.Institute) (institute.Institute, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.institutes[inst.ID]
	if !ok {
		return institute.Institute{}, institute.ErrNotFound
	}
	// reference lists are owned by the store, never by callers
	inst.StudentIDs = orig.StudentIDs
	inst.ExamIDs = orig.ExamIDs
	repo.db.institutes[inst.ID] = &inst
	return repo.clone(&inst), nil
}

func (repo *instituteRepository) DeleteInstitute(_ context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.institutes[id]; !ok {
		return institute.ErrNotFound
	}

	// cascade: students, exams, and everything the exams own
	for sid, stu := range repo.db.students {
		if stu.InstituteID == id {
			delete(repo.db.students, sid)
		}
	}
	for eid, ex := range repo.db.exams {
		if ex.InstituteID != id {
			continue
		}
		for qid, q := range repo.db.questions {
			if q.ExamID == eid {
				delete(repo.db.questions, qid)
			}
		}
		for tid, test := range repo.db.typingTests {
			if test.ExamID == eid {
				delete(repo.db.typingTests, tid)
			}
		}
		delete(repo.db.exams, eid)
	}
	delete(repo.db.institutes, id)
	return nil
}

func isExcludedInstitute(inst institute.Institute, excluded []institute.Institute) bool {
	for _, ex := range excluded {
		if ex.ID == inst.ID {
			return true
		}
	}
	return false
}
