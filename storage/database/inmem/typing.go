package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/parikshahq/pariksha/core/exam"
	"github.com/parikshahq/pariksha/core/typing"
)

type typingRepository struct {
	db *DB
}

var _ typing.Repository = (*typingRepository)(nil) // interface compliance check

func NewTypingRepository(db *DB) *typingRepository {
	return &typingRepository{db: db}
}

func (repo *typingRepository) clone(test *typing.TypingTest) typing.TypingTest {
	out := *test
	out.Results = make([]typing.TypingResult, len(test.Results))
	copy(out.Results, test.Results)
	return out
}

func (repo *typingRepository) CreateTest(_ context.Context, test typing.TypingTest) (typing.TypingTest, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.exams[test.ExamID]; !ok {
		return typing.TypingTest{}, exam.ErrNotFound
	}
	for _, t := range repo.db.typingTests {
		if t.ExamID == test.ExamID {
			return typing.TypingTest{}, typing.ErrTestExists
		}
	}

	test.ID = uuid.New().String()
	test.Results = []typing.TypingResult{}
	repo.db.typingTests[test.ID] = &test
	return repo.clone(&test), nil
}

func (repo *typingRepository) GetTest(_ context.Context, id string) (typing.TypingTest, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if test, ok := repo.db.typingTests[id]; ok {
		return repo.clone(test), nil
	}
	return typing.TypingTest{}, typing.ErrNotFound
}

func (repo *typingRepository) GetTestByExam(_ context.Context, examID string) (typing.TypingTest, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, test := range repo.db.typingTests {
		if test.ExamID == examID {
			return repo.clone(test), nil
		}
	}
	return typing.TypingTest{}, typing.ErrNotFound
}

func (repo *typingRepository) DeleteTest(_ context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.typingTests[id]; !ok {
		return typing.ErrNotFound
	}
	delete(repo.db.typingTests, id)
	return nil
}

func (repo *typingRepository) RecordResult(_ context.Context, testID string, res typing.TypingResult) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	test, ok := repo.db.typingTests[testID]
	if !ok {
		return typing.ErrNotFound
	}
	test.Results = append(test.Results, res)
	return nil
}
