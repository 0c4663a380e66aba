package exam

import (
	"context"
	"errors"
	"time"

	"github.com/parikshahq/pariksha/core/student"
)

var (
	// errors
	ErrNotFound         = errors.New("exam not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrAlreadyAttempted = errors.New("exam already attempted")

	nowFunc = time.Now // mockable
)

type (
	// Submission is the atomic outcome of a scored attempt: the ledger entry
	// plus the student-side bookkeeping, applied together or not at all.
	Submission struct {
		ExamID    string
		StudentID string
		Score     float64
		Passed    bool
		DateTaken time.Time // UTC
	}

	Repository interface {
		// CreateExam persists the exam and appends its id to the owning
		// institute's exam list in the same operation.
		CreateExam(ctx context.Context, ex Exam) (Exam, error)
		QueryExamsByInstitute(ctx context.Context, instituteID string) ([]Exam, error)
		GetExam(ctx context.Context, id string) (Exam, error)
		UpdateExam(ctx context.Context, ex Exam) (Exam, error)
		// DeleteExam removes the exam, its questions, its typing test and the
		// reference held by the owning institute atomically.
		DeleteExam(ctx context.Context, id string) error

		// CreateQuestion persists the question and appends its id to the
		// owning exam's question list in the same operation.
		CreateQuestion(ctx context.Context, q Question) (Question, error)
		// QueryQuestionsByExam returns the exam's questions in stored order.
		QueryQuestionsByExam(ctx context.Context, examID string) ([]Question, error)
		GetQuestion(ctx context.Context, id string) (Question, error)
		UpdateQuestion(ctx context.Context, q Question) (Question, error)
		// DeleteQuestion removes the question and the reference held by the
		// owning exam atomically.
		DeleteQuestion(ctx context.Context, id string) error

		// RecordSubmission appends the result to the exam's ledger, appends
		// the exam to the student's taken list and sets the student's score
		// and passed flag — atomically. A second submission for the same
		// (exam, student) pair fails with ErrAlreadyAttempted and leaves
		// every record untouched.
		RecordSubmission(ctx context.Context, sub Submission) error
	}

	// StudentDirectory is the slice of the student store the engine needs.
	StudentDirectory interface {
		GetStudent(ctx context.Context, id string) (student.Student, error)
	}

	Service struct {
		repo     Repository
		students StudentDirectory
	}
)

func NewService(repo Repository, students StudentDirectory) *Service {
	return &Service{repo: repo, students: students}
}

// Lifecycle

func (svc *Service) Create(ctx context.Context, instituteID string, ne NewExam) (Exam, error) {
	now := nowFunc().UTC()
	ex := Exam{
		Name:        ne.Name,
		Description: ne.Description,
		InstituteID: instituteID,
		Duration:    ne.Duration,
		MaxMarks:    ne.MaxMarks,
		PassMarks:   ne.PassMarks,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateExam(ctx, ex)
}

func (svc *Service) QueryByInstitute(ctx context.Context, instituteID string) ([]Exam, error) {
	return svc.repo.QueryExamsByInstitute(ctx, instituteID)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Exam, error) {
	return svc.repo.GetExam(ctx, id)
}

// Update applies a partial edit: only set fields overwrite existing values.
func (svc *Service) Update(ctx context.Context, orig Exam, ue UpdateExam) (Exam, error) {
	ex := orig
	if ue.Name.Valid {
		ex.Name = ue.Name.String
	}
	if ue.Description.Valid {
		ex.Description = ue.Description.String
	}
	if ue.Duration.Valid {
		ex.Duration = ue.Duration.Int
	}
	if ue.MaxMarks.Valid {
		ex.MaxMarks = ue.MaxMarks.Float64
	}
	if ue.PassMarks.Valid {
		ex.PassMarks = ue.PassMarks.Float64
	}
	ex.UpdatedAt = nowFunc().UTC()
	return svc.repo.UpdateExam(ctx, ex)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteExam(ctx, id)
}

func (svc *Service) AddQuestion(ctx context.Context, examID string, nq NewQuestion) (Question, error) {
	q := Question{
		ExamID:        examID,
		Text:          nq.Text,
		Options:       nq.Options,
		CorrectAnswer: nq.CorrectAnswer,
		Subfield:      nq.Subfield,
	}
	return svc.repo.CreateQuestion(ctx, q)
}

func (svc *Service) QueryQuestions(ctx context.Context, examID string) ([]Question, error) {
	return svc.repo.QueryQuestionsByExam(ctx, examID)
}

func (svc *Service) GetQuestion(ctx context.Context, id string) (Question, error) {
	return svc.repo.GetQuestion(ctx, id)
}

// UpdateQuestion applies a partial edit: only set fields overwrite existing values.
func (svc *Service) UpdateQuestion(ctx context.Context, orig Question, uq UpdateQuestion) (Question, error) {
	q := orig
	if uq.Text.Valid {
		q.Text = uq.Text.String
	}
	if uq.Options != nil {
		q.Options = uq.Options
	}
	if uq.CorrectAnswer.Valid {
		q.CorrectAnswer = uq.CorrectAnswer.String
	}
	if uq.Subfield.Valid {
		q.Subfield = uq.Subfield.String
	}
	return svc.repo.UpdateQuestion(ctx, q)
}

func (svc *Service) DeleteQuestion(ctx context.Context, id string) error {
	return svc.repo.DeleteQuestion(ctx, id)
}

// Submission engine

// Submit scores the student's answers against the exam's questions in stored
// order and records the outcome on both the exam ledger and the student.
//
// Scoring is index-aligned exact match: answers[i] is compared to the correct
// answer of question i; a missing answer never matches. The score is
// (matches / questions) × MaxMarks, 0 when the exam has no questions.
//
// At-most-once: a student gets exactly one scored attempt per exam. The
// authoritative check lives in Repository.RecordSubmission so two concurrent
// submissions cannot both get through; the early HasTaken check only spares
// the scoring work.
func (svc *Service) Submit(ctx context.Context, examID, studentID string, answers []string) (Grade, error) {
	ex, err := svc.repo.GetExam(ctx, examID)
	if err != nil {
		return Grade{}, err
	}
	stu, err := svc.students.GetStudent(ctx, studentID)
	if err != nil {
		return Grade{}, err
	}
	if stu.HasTaken(ex.ID) {
		return Grade{}, ErrAlreadyAttempted
	}

	questions, err := svc.repo.QueryQuestionsByExam(ctx, ex.ID)
	if err != nil {
		return Grade{}, err
	}

	var correct int
	for i, q := range questions {
		if i < len(answers) && answers[i] == q.CorrectAnswer {
			correct++
		}
	}

	var score float64
	if len(questions) > 0 {
		score = float64(correct) / float64(len(questions)) * ex.MaxMarks
	}
	passed := score >= ex.PassMarks

	sub := Submission{
		ExamID:    ex.ID,
		StudentID: stu.ID,
		Score:     score,
		Passed:    passed,
		DateTaken: nowFunc().UTC(),
	}
	if err := svc.repo.RecordSubmission(ctx, sub); err != nil {
		return Grade{}, err
	}
	return Grade{Score: score, Passed: passed}, nil
}
