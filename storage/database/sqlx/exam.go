package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/parikshahq/pariksha/core/exam"
	"github.com/parikshahq/pariksha/core/institute"
	"github.com/parikshahq/pariksha/core/student"
)

const examColumns = `id, name, description, institute_id, duration, max_marks, pass_marks,
	created_at, updated_at`

type examRepository struct {
	db *sqlx.DB
}

var _ exam.Repository = (*examRepository)(nil) // interface compliance check

func NewExamRepository(db *sqlx.DB) *examRepository {
	return &examRepository{db: db}
}

// questionRow carries the options array across the driver boundary.
type questionRow struct {
	exam.Question
	Options pq.StringArray `db:"options"`
}

func (row questionRow) toQuestion() exam.Question {
	q := row.Question
	q.Options = []string(row.Options)
	return q
}

// loadRefs fills the derived question list and result ledger.
func (repo *examRepository) loadRefs(ctx context.Context, ex *exam.Exam) error {
	ex.QuestionIDs = make([]string, 0)
	if err := repo.db.SelectContext(ctx, &ex.QuestionIDs,
		`SELECT id FROM questions WHERE exam_id = $1 ORDER BY position`, ex.ID); err != nil {
		return errors.Wrap(err, "loading question refs")
	}
	ex.Results = make([]exam.Result, 0)
	if err := repo.db.SelectContext(ctx, &ex.Results,
		`SELECT student_id, score, passed, date_taken FROM exam_results
		 WHERE exam_id = $1 ORDER BY date_taken`, ex.ID); err != nil {
		return errors.Wrap(err, "loading result ledger")
	}
	return nil
}

// ExamExists satisfies typing.ExamChecker.
func (repo *examRepository) ExamExists(ctx context.Context, examID string) error {
	var n int
	if err := repo.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM exams WHERE id = $1`, examID); err != nil {
		return errors.Wrap(err, "checking exam")
	}
	if n == 0 {
		return exam.ErrNotFound
	}
	return nil
}

func (repo *examRepository) CreateExam(ctx context.Context, ex exam.Exam) (exam.Exam, error) {
	ex.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO exams (`+examColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		ex.ID, ex.Name, ex.Description, ex.InstituteID, ex.Duration, ex.MaxMarks, ex.PassMarks,
		ex.CreatedAt, ex.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err, "exams_institute_id_fkey") {
			return exam.Exam{}, institute.ErrNotFound
		}
		return exam.Exam{}, errors.Wrap(err, "creating exam")
	}
	ex.QuestionIDs = make([]string, 0)
	ex.Results = make([]exam.Result, 0)
	return ex, nil
}

func (repo *examRepository) QueryExamsByInstitute(ctx context.Context, instituteID string) ([]exam.Exam, error) {
	exams := make([]exam.Exam, 0)
	err := repo.db.SelectContext(ctx, &exams,
		`SELECT `+examColumns+` FROM exams WHERE institute_id = $1 ORDER BY created_at, id`, instituteID)
	if err != nil {
		return nil, errors.Wrap(err, "querying exams")
	}
	for i := range exams {
		if err := repo.loadRefs(ctx, &exams[i]); err != nil {
			return nil, err
		}
	}
	return exams, nil
}

func (repo *examRepository) GetExam(ctx context.Context, id string) (exam.Exam, error) {
	var ex exam.Exam
	err := repo.db.GetContext(ctx, &ex,
		`SELECT `+examColumns+` FROM exams WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return exam.Exam{}, exam.ErrNotFound
	}
	if err != nil {
		return exam.Exam{}, errors.Wrap(err, "getting exam")
	}
	if err := repo.loadRefs(ctx, &ex); err != nil {
		return exam.Exam{}, err
	}
	return ex, nil
}

func (repo *examRepository) UpdateExam(ctx context.Context, ex exam.Exam) (exam.Exam, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE exams
		 SET name = $2, description = $3, duration = $4, max_marks = $5, pass_marks = $6, updated_at = $7
		 WHERE id = $1`,
		ex.ID, ex.Name, ex.Description, ex.Duration, ex.MaxMarks, ex.PassMarks, ex.UpdatedAt,
	)
	if err != nil {
		return exam.Exam{}, errors.Wrap(err, "updating exam")
	}
	if n, err := res.RowsAffected(); err != nil {
		return exam.Exam{}, errors.Wrap(err, "updating exam")
	} else if n == 0 {
		return exam.Exam{}, exam.ErrNotFound
	}
	if err := repo.loadRefs(ctx, &ex); err != nil {
		return exam.Exam{}, err
	}
	return ex, nil
}

func (repo *examRepository) DeleteExam(ctx context.Context, id string) error {
	// questions, the result ledger and the typing test go with it (ON DELETE CASCADE)
	res, err := repo.db.ExecContext(ctx, `DELETE FROM exams WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting exam")
	}
	if n, err := res.RowsAffected(); err != nil {
		return errors.Wrap(err, "deleting exam")
	} else if n == 0 {
		return exam.ErrNotFound
	}
	return nil
}

func (repo *examRepository) CreateQuestion(ctx context.Context, q exam.Question) (exam.Question, error) {
	q.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO questions (id, exam_id, text, options, correct_answer, subfield)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		q.ID, q.ExamID, q.Text, pq.StringArray(q.Options), q.CorrectAnswer, q.Subfield,
	)
	if err != nil {
		if isForeignKeyViolation(err, "questions_exam_id_fkey") {
			return exam.Question{}, exam.ErrNotFound
		}
		return exam.Question{}, errors.Wrap(err, "creating question")
	}
	return q, nil
}

func (repo *examRepository) QueryQuestionsByExam(ctx context.Context, examID string) ([]exam.Question, error) {
	if err := repo.ExamExists(ctx, examID); err != nil {
		return nil, err
	}

	var rows []questionRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT id, exam_id, text, options, correct_answer, subfield FROM questions
		 WHERE exam_id = $1 ORDER BY position`, examID)
	if err != nil {
		return nil, errors.Wrap(err, "querying questions")
	}
	questions := make([]exam.Question, len(rows))
	for i, row := range rows {
		questions[i] = row.toQuestion()
	}
	return questions, nil
}

func (repo *examRepository) GetQuestion(ctx context.Context, id string) (exam.Question, error) {
	var row questionRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT id, exam_id, text, options, correct_answer, subfield FROM questions WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return exam.Question{}, exam.ErrQuestionNotFound
	}
	if err != nil {
		return exam.Question{}, errors.Wrap(err, "getting question")
	}
	return row.toQuestion(), nil
}

func (repo *examRepository) UpdateQuestion(ctx context.Context, q exam.Question) (exam.Question, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE questions SET text = $2, options = $3, correct_answer = $4, subfield = $5 WHERE id = $1`,
		q.ID, q.Text, pq.StringArray(q.Options), q.CorrectAnswer, q.Subfield,
	)
	if err != nil {
		return exam.Question{}, errors.Wrap(err, "updating question")
	}
	if n, err := res.RowsAffected(); err != nil {
		return exam.Question{}, errors.Wrap(err, "updating question")
	} else if n == 0 {
		return exam.Question{}, exam.ErrQuestionNotFound
	}
	return q, nil
}

func (repo *examRepository) DeleteQuestion(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting question")
	}
	if n, err := res.RowsAffected(); err != nil {
		return errors.Wrap(err, "deleting question")
	} else if n == 0 {
		return exam.ErrQuestionNotFound
	}
	return nil
}

func (repo *examRepository) RecordSubmission(ctx context.Context, sub exam.Submission) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "recording submission")
	}
	defer func() { _ = tx.Rollback() }()

	// the unique constraint is the authoritative at-most-once check
	_, err = tx.ExecContext(ctx,
		`INSERT INTO exam_results (exam_id, student_id, score, passed, date_taken)
		 VALUES ($1, $2, $3, $4, $5)`,
		sub.ExamID, sub.StudentID, sub.Score, sub.Passed, sub.DateTaken,
	)
	if err != nil {
		if isUniqueViolation(err, "exam_results_attempt_key") {
			return exam.ErrAlreadyAttempted
		}
		if isForeignKeyViolation(err, "exam_results_exam_id_fkey") {
			return exam.ErrNotFound
		}
		if isForeignKeyViolation(err, "exam_results_student_id_fkey") {
			return student.ErrNotFound
		}
		return errors.Wrap(err, "recording submission")
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE students SET score = $2, passed = $3, updated_at = $4 WHERE id = $1`,
		sub.StudentID, sub.Score, sub.Passed, sub.DateTaken,
	)
	if err != nil {
		return errors.Wrap(err, "recording submission")
	}
	if n, err := res.RowsAffected(); err != nil {
		return errors.Wrap(err, "recording submission")
	} else if n == 0 {
		return student.ErrNotFound
	}

	return errors.Wrap(tx.Commit(), "recording submission")
}
