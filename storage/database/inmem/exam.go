package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/parikshahq/pariksha/core/exam"
	"github.com/parikshahq/pariksha/core/institute"
	"github.com/parikshahq/pariksha/core/student"
)

type examRepository struct {
	db *DB
}

var _ exam.Repository = (*examRepository)(nil) // interface compliance check

func NewExamRepository(db *DB) *examRepository {
	return &examRepository{db: db}
}

func (repo *examRepository) cloneExam(ex *exam.Exam) exam.Exam {
	out := *ex
	out.QuestionIDs = copyStrings(ex.QuestionIDs)
	out.Results = make([]exam.Result, len(ex.Results))
	copy(out.Results, ex.Results)
	return out
}

func (repo *examRepository) cloneQuestion(q *exam.Question) exam.Question {
	out := *q
	out.Options = copyStrings(q.Options)
	return out
}

// ExamExists satisfies typing.ExamChecker.
func (repo *examRepository) ExamExists(_ context.Context, examID string) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if _, ok := repo.db.exams[examID]; !ok {
		return exam.ErrNotFound
	}
	return nil
}

func (repo *examRepository) CreateExam(_ context.Context, ex exam.Exam) (exam.Exam, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	inst, ok := repo.db.institutes[ex.InstituteID]
	if !ok {
		return exam.Exam{}, institute.ErrNotFound
	}

	ex.ID = uuid.New().String()
	ex.QuestionIDs = copyStrings(ex.QuestionIDs)
	ex.Results = []exam.Result{}
	repo.db.exams[ex.ID] = &ex
	inst.ExamIDs = append(inst.ExamIDs, ex.ID)
	return repo.cloneExam(&ex), nil
}

func (repo *examRepository) QueryExamsByInstitute(_ context.Context, instituteID string) ([]exam.Exam, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	exams := make([]exam.Exam, 0)
	for _, ex := range repo.db.exams {
		if ex.InstituteID == instituteID {
			exams = append(exams, repo.cloneExam(ex))
		}
	}
	sort.Slice(exams, func(i, j int) bool { return exams[i].CreatedAt.Before(exams[j].CreatedAt) })
	return exams, nil
}

func (repo *examRepository) GetExam(_ context.Context, id string) (exam.Exam, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if ex, ok := repo.db.exams[id]; ok {
		return repo.cloneExam(ex), nil
	}
	return exam.Exam{}, exam.ErrNotFound
}

func (repo *examRepository) UpdateExam(_ context.Context, ex exam.Exam) (exam.Exam, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.exams[ex.ID]
	if !ok {
		return exam.Exam{}, exam.ErrNotFound
	}
	// the question list and ledger are owned by the store
	ex.QuestionIDs = orig.QuestionIDs
	ex.Results = orig.Results
	repo.db.exams[ex.ID] = &ex
	return repo.cloneExam(&ex), nil
}

func (repo *examRepository) DeleteExam(_ context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	ex, ok := repo.db.exams[id]
	if !ok {
		return exam.ErrNotFound
	}

	if inst, ok := repo.db.institutes[ex.InstituteID]; ok {
		inst.ExamIDs = removeString(inst.ExamIDs, id)
	}
	for qid, q := range repo.db.questions {
		if q.ExamID == id {
			delete(repo.db.questions, qid)
		}
	}
	for tid, test := range repo.db.typingTests {
		if test.ExamID == id {
			delete(repo.db.typingTests, tid)
		}
	}
	delete(repo.db.exams, id)
	return nil
}

func (repo *examRepository) CreateQuestion(_ context.Context, q exam.Question) (exam.Question, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	ex, ok := repo.db.exams[q.ExamID]
	if !ok {
		return exam.Question{}, exam.ErrNotFound
	}

	q.ID = uuid.New().String()
	q.Options = copyStrings(q.Options)
	repo.db.questions[q.ID] = &q
	ex.QuestionIDs = append(ex.QuestionIDs, q.ID)
	return repo.cloneQuestion(&q), nil
}

func (repo *examRepository) QueryQuestionsByExam(_ context.Context, examID string) ([]exam.Question, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	ex, ok := repo.db.exams[examID]
	if !ok {
		return nil, exam.ErrNotFound
	}

	// stored order is the exam's question list order
	questions := make([]exam.Question, 0, len(ex.QuestionIDs))
	for _, qid := range ex.QuestionIDs {
		if q, ok := repo.db.questions[qid]; ok {
			questions = append(questions, repo.cloneQuestion(q))
		}
	}
	return questions, nil
}

func (repo *examRepository) GetQuestion(_ context.Context, id string) (exam.Question, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if q, ok := repo.db.questions[id]; ok {
		return repo.cloneQuestion(q), nil
	}
	return exam.Question{}, exam.ErrQuestionNotFound
}

func (repo *examRepository) UpdateQuestion(_ context.Context, q exam.Question) (exam.Question, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.questions[q.ID]; !ok {
		return exam.Question{}, exam.ErrQuestionNotFound
	}
	q.Options = copyStrings(q.Options)
	repo.db.questions[q.ID] = &q
	return repo.cloneQuestion(&q), nil
}

func (repo *examRepository) DeleteQuestion(_ context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	q, ok := repo.db.questions[id]
	if !ok {
		return exam.ErrQuestionNotFound
	}
	if ex, ok := repo.db.exams[q.ExamID]; ok {
		ex.QuestionIDs = removeString(ex.QuestionIDs, id)
	}
	delete(repo.db.questions, id)
	return nil
}

func (repo *examRepository) RecordSubmission(_ context.Context, sub exam.Submission) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	ex, ok := repo.db.exams[sub.ExamID]
	if !ok {
		return exam.ErrNotFound
	}
	stu, ok := repo.db.students[sub.StudentID]
	if !ok {
		return student.ErrNotFound
	}

	// authoritative at-most-once check, done under the write lock
	if ex.HasAttempted(sub.StudentID) || stu.HasTaken(sub.ExamID) {
		return exam.ErrAlreadyAttempted
	}

	ex.Results = append(ex.Results, exam.Result{
		StudentID: sub.StudentID,
		Score:     sub.Score,
		Passed:    sub.Passed,
		DateTaken: sub.DateTaken,
	})
	stu.ExamsTaken = append(stu.ExamsTaken, sub.ExamID)
	stu.Score = sub.Score
	stu.Passed = sub.Passed
	stu.UpdatedAt = sub.DateTaken
	return nil
}
