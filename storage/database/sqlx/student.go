package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/parikshahq/pariksha/core/institute"
	"github.com/parikshahq/pariksha/core/student"
)

const studentColumns = `id, name, institute_id, roll_number, date_of_birth, profile_image_url,
	password_hash, score, passed, created_at, updated_at`

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) *studentRepository {
	return &studentRepository{db: db}
}

// loadExamsTaken fills the derived taken list from the exam result ledger.
func (repo *studentRepository) loadExamsTaken(ctx context.Context, stu *student.Student) error {
	stu.ExamsTaken = make([]string, 0)
	err := repo.db.SelectContext(ctx, &stu.ExamsTaken,
		`SELECT exam_id FROM exam_results WHERE student_id = $1 ORDER BY date_taken`, stu.ID)
	return errors.Wrap(err, "loading exams taken")
}

func (repo *studentRepository) CheckRollNumberUniqueness(ctx context.Context, instituteID, rollNumber string, excluded ...student.Student) error {
	q := `SELECT COUNT(*) FROM students WHERE institute_id = ? AND roll_number = ?`
	args := []interface{}{instituteID, rollNumber}
	if len(excluded) > 0 {
		ids := make([]string, len(excluded))
		for i, stu := range excluded {
			ids[i] = stu.ID
		}
		var err error
		if q, args, err = sqlx.In(q+` AND id NOT IN (?)`, instituteID, rollNumber, ids); err != nil {
			return errors.Wrap(err, "checking roll number uniqueness")
		}
	}

	var n int
	if err := repo.db.GetContext(ctx, &n, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "checking roll number uniqueness")
	}
	if n > 0 {
		return student.ErrRollNumberExists
	}
	return nil
}

func (repo *studentRepository) CreateStudent(ctx context.Context, stu student.Student) (student.Student, error) {
	stu.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO students (`+studentColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		stu.ID, stu.Name, stu.InstituteID, stu.RollNumber, stu.DateOfBirth, stu.ProfileImageURL,
		stu.PasswordHash, stu.Score, stu.Passed, stu.CreatedAt, stu.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err, "students_institute_id_fkey") {
			return student.Student{}, institute.ErrNotFound
		}
		if isUniqueViolation(err, "students_roll_number_key") {
			return student.Student{}, student.ErrRollNumberExists
		}
		return student.Student{}, errors.Wrap(err, "creating student")
	}
	stu.ExamsTaken = make([]string, 0)
	return stu, nil
}

func (repo *studentRepository) QueryStudentsByInstitute(ctx context.Context, instituteID string) ([]student.Student, error) {
	students := make([]student.Student, 0)
	err := repo.db.SelectContext(ctx, &students,
		`SELECT `+studentColumns+` FROM students WHERE institute_id = $1 ORDER BY roll_number`, instituteID)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	for i := range students {
		if err := repo.loadExamsTaken(ctx, &students[i]); err != nil {
			return nil, err
		}
	}
	return students, nil
}

func (repo *studentRepository) GetStudent(ctx context.Context, id string) (student.Student, error) {
	var stu student.Student
	err := repo.db.GetContext(ctx, &stu,
		`SELECT `+studentColumns+` FROM students WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return student.Student{}, student.ErrNotFound
	}
	if err != nil {
		return student.Student{}, errors.Wrap(err, "getting student")
	}
	if err := repo.loadExamsTaken(ctx, &stu); err != nil {
		return student.Student{}, err
	}
	return stu, nil
}

func (repo *studentRepository) GetStudentByRollNumber(ctx context.Context, instituteID, rollNumber string) (student.Student, error) {
	var stu student.Student
	err := repo.db.GetContext(ctx, &stu,
		`SELECT `+studentColumns+` FROM students WHERE institute_id = $1 AND roll_number = $2`,
		instituteID, rollNumber)
	if err == sql.ErrNoRows {
		return student.Student{}, student.ErrNotFound
	}
	if err != nil {
		return student.Student{}, errors.Wrap(err, "getting student by roll number")
	}
	if err := repo.loadExamsTaken(ctx, &stu); err != nil {
		return student.Student{}, err
	}
	return stu, nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, stu student.Student) (student.Student, error) {
	// score and passed are owned by the submission path and never updated here
	res, err := repo.db.ExecContext(ctx,
		`UPDATE students
		 SET name = $2, roll_number = $3, date_of_birth = $4, profile_image_url = $5,
		     password_hash = $6, updated_at = $7
		 WHERE id = $1`,
		stu.ID, stu.Name, stu.RollNumber, stu.DateOfBirth, stu.ProfileImageURL,
		stu.PasswordHash, stu.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "students_roll_number_key") {
			return student.Student{}, student.ErrRollNumberExists
		}
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	if n, err := res.RowsAffected(); err != nil {
		return student.Student{}, errors.Wrap(err, "updating student")
	} else if n == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return repo.GetStudent(ctx, stu.ID)
}

func (repo *studentRepository) DeleteStudent(ctx context.Context, id string) error {
	// the result ledger entries go with it (ON DELETE CASCADE)
	res, err := repo.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	if n, err := res.RowsAffected(); err != nil {
		return errors.Wrap(err, "deleting student")
	} else if n == 0 {
		return student.ErrNotFound
	}
	return nil
}
