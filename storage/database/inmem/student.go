package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/parikshahq/pariksha/core/institute"
	"github.com/parikshahq/pariksha/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) *studentRepository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) clone(stu *student.Student) student.Student {
	out := *stu
	out.ExamsTaken = copyStrings(stu.ExamsTaken)
	return out
}

func (repo *studentRepository) CheckRollNumberUniqueness(_ context.Context, instituteID, rollNumber string, excluded ...student.Student) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, stu := range repo.db.students {
		if stu.InstituteID != instituteID || isExcludedStudent(*stu, excluded) {
			continue
		}
		if stu.RollNumber == rollNumber {
			return student.ErrRollNumberExists
		}
	}
	return nil
}

func (repo *studentRepository) CreateStudent(_ context.Context, stu student.Student) (student.Student, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	inst, ok := repo.db.institutes[stu.InstituteID]
	if !ok {
		return student.Student{}, institute.ErrNotFound
	}

	stu.ID = uuid.New().String()
	stu.ExamsTaken = copyStrings(stu.ExamsTaken)
	repo.db.students[stu.ID] = &stu
	inst.StudentIDs = append(inst.StudentIDs, stu.ID)
	return repo.clone(&stu), nil
}

func (repo *studentRepository) QueryStudentsByInstitute(_ context.Context, instituteID string) ([]student.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	students := make([]student.Student, 0)
	for _, stu := range repo.db.students {
		if stu.InstituteID == instituteID {
			students = append(students, repo.clone(stu))
		}
	}
	sort.Slice(students, func(i, j int) bool { return students[i].RollNumber < students[j].RollNumber })
	return students, nil
}

func (repo *studentRepository) GetStudent(_ context.Context, id string) (student.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if stu, ok := repo.db.students[id]; ok {
		return repo.clone(stu), nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) GetStudentByRollNumber(_ context.Context, instituteID, rollNumber string) (student.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, stu := range repo.db.students {
		if stu.InstituteID == instituteID && stu.RollNumber == rollNumber {
			return repo.clone(stu), nil
		}
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) UpdateStudent(_ context.Context, stu student.Student) (student.Student, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.students[stu.ID]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	// the taken list and score fields are owned by the submission path
	stu.ExamsTaken = orig.ExamsTaken
	stu.Score = orig.Score
	stu.Passed = orig.Passed
	repo.db.students[stu.ID] = &stu
	return repo.clone(&stu), nil
}

func (repo *studentRepository) DeleteStudent(_ context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	stu, ok := repo.db.students[id]
	if !ok {
		return student.ErrNotFound
	}
	if inst, ok := repo.db.institutes[stu.InstituteID]; ok {
		inst.StudentIDs = removeString(inst.StudentIDs, id)
	}
	delete(repo.db.students, id)
	return nil
}

func isExcludedStudent(stu student.Student, excluded []student.Student) bool {
	for _, ex := range excluded {
		if ex.ID == stu.ID {
			return true
		}
	}
	return false
}
