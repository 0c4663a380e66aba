package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/parikshahq/pariksha/core/exam"
	"github.com/parikshahq/pariksha/core/typing"
)

const typingTestColumns = `id, exam_id, title, passage, duration, total_words, created_at`

type typingRepository struct {
	db *sqlx.DB
}

var _ typing.Repository = (*typingRepository)(nil) // interface compliance check

func NewTypingRepository(db *sqlx.DB) *typingRepository {
	return &typingRepository{db: db}
}

func (repo *typingRepository) loadResults(ctx context.Context, test *typing.TypingTest) error {
	test.Results = make([]typing.TypingResult, 0)
	err := repo.db.SelectContext(ctx, &test.Results,
		`SELECT student_id, wpm, accuracy, date_taken FROM typing_results
		 WHERE test_id = $1 ORDER BY date_taken`, test.ID)
	return errors.Wrap(err, "loading typing results")
}

func (repo *typingRepository) CreateTest(ctx context.Context, test typing.TypingTest) (typing.TypingTest, error) {
	test.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO typing_tests (`+typingTestColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		test.ID, test.ExamID, test.Title, test.Passage, test.Duration, test.TotalWords, test.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "typing_tests_exam_id_key") {
			return typing.TypingTest{}, typing.ErrTestExists
		}
		if isForeignKeyViolation(err, "typing_tests_exam_id_fkey") {
			return typing.TypingTest{}, exam.ErrNotFound
		}
		return typing.TypingTest{}, errors.Wrap(err, "creating typing test")
	}
	test.Results = make([]typing.TypingResult, 0)
	return test, nil
}

func (repo *typingRepository) GetTest(ctx context.Context, id string) (typing.TypingTest, error) {
	var test typing.TypingTest
	err := repo.db.GetContext(ctx, &test,
		`SELECT `+typingTestColumns+` FROM typing_tests WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return typing.TypingTest{}, typing.ErrNotFound
	}
	if err != nil {
		return typing.TypingTest{}, errors.Wrap(err, "getting typing test")
	}
	if err := repo.loadResults(ctx, &test); err != nil {
		return typing.TypingTest{}, err
	}
	return test, nil
}

func (repo *typingRepository) GetTestByExam(ctx context.Context, examID string) (typing.TypingTest, error) {
	var test typing.TypingTest
	err := repo.db.GetContext(ctx, &test,
		`SELECT `+typingTestColumns+` FROM typing_tests WHERE exam_id = $1`, examID)
	if err == sql.ErrNoRows {
		return typing.TypingTest{}, typing.ErrNotFound
	}
	if err != nil {
		return typing.TypingTest{}, errors.Wrap(err, "getting typing test by exam")
	}
	if err := repo.loadResults(ctx, &test); err != nil {
		return typing.TypingTest{}, err
	}
	return test, nil
}

func (repo *typingRepository) DeleteTest(ctx context.Context, id string) error {
	// the result ledger goes with it (ON DELETE CASCADE)
	res, err := repo.db.ExecContext(ctx, `DELETE FROM typing_tests WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting typing test")
	}
	if n, err := res.RowsAffected(); err != nil {
		return errors.Wrap(err, "deleting typing test")
	} else if n == 0 {
		return typing.ErrNotFound
	}
	return nil
}

func (repo *typingRepository) RecordResult(ctx context.Context, testID string, res typing.TypingResult) error {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO typing_results (test_id, student_id, wpm, accuracy, date_taken)
		 VALUES ($1, $2, $3, $4, $5)`,
		testID, res.StudentID, res.WPM, res.Accuracy, res.DateTaken,
	)
	if err != nil {
		if isForeignKeyViolation(err, "typing_results_test_id_fkey") {
			return typing.ErrNotFound
		}
		return errors.Wrap(err, "recording typing result")
	}
	return nil
}
