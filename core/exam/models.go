package exam

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/parikshahq/pariksha/core"
)

type (
	// Exam is owned by exactly one Institute. Results is the append-only
	// ledger of scored submissions; a student appears in it at most once.
	Exam struct {
		ID          string    `json:"id" db:"id"`
		Name        string    `json:"exam_name" db:"name"`
		Description string    `json:"exam_description,omitempty" db:"description"`
		InstituteID string    `json:"institute" db:"institute_id"`
		QuestionIDs []string  `json:"questions" db:"-"`
		Duration    int       `json:"duration" db:"duration"` // minutes
		MaxMarks    float64   `json:"max_marks" db:"max_marks"`
		PassMarks   float64   `json:"pass_marks" db:"pass_marks"`
		Results     []Result  `json:"results" db:"-"`
		CreatedAt   time.Time `json:"created_at" db:"created_at"` // UTC
		UpdatedAt   time.Time `json:"updated_at" db:"updated_at"` // UTC
	}

	// Question is owned by exactly one Exam; grading is exact-match on a
	// single answer. CorrectAnswer is always one of Options.
	Question struct {
		ID            string   `json:"id" db:"id"`
		ExamID        string   `json:"exam" db:"exam_id"`
		Text          string   `json:"question_text" db:"text"`
		Options       []string `json:"options" db:"-"`
		CorrectAnswer string   `json:"correct_answer" db:"correct_answer"`
		Subfield      string   `json:"subfield" db:"subfield"`
	}

	// Result is one entry of an exam's result ledger.
	Result struct {
		StudentID string    `json:"student" db:"student_id"`
		Score     float64   `json:"score" db:"score"`
		Passed    bool      `json:"passed" db:"passed"`
		DateTaken time.Time `json:"date_taken" db:"date_taken"` // UTC
	}

	// Grade is what a student gets back from a submission.
	Grade struct {
		Score  float64 `json:"score"`
		Passed bool    `json:"passed"`
	}
)

// HasAttempted reports whether the student already appears in the ledger.
func (e *Exam) HasAttempted(studentID string) bool {
	for _, res := range e.Results {
		if res.StudentID == studentID {
			return true
		}
	}
	return false
}

// NewExam contains information needed to create a new Exam.
type NewExam struct {
	Name        string  `json:"exam_name" form:"exam_name" validate:"required"`
	Description string  `json:"exam_description" form:"exam_description"`
	Duration    int     `json:"duration" form:"duration" validate:"omitempty,gt=0"`
	MaxMarks    float64 `json:"max_marks" form:"max_marks" validate:"required,gt=0"`
	PassMarks   float64 `json:"pass_marks" form:"pass_marks" validate:"gte=0,ltefield=MaxMarks"`
}

func (ne *NewExam) Validate() error {
	ne.Name = core.CleanString(ne.Name)
	ne.Description = core.CleanString(ne.Description)
	return core.Validate.Struct(ne)
}

// UpdateExam defines what information may be provided to modify an existing
// Exam. Absent fields are left untouched.
type UpdateExam struct {
	Name        null.String  `json:"exam_name" form:"exam_name"`
	Description null.String  `json:"exam_description" form:"exam_description"`
	Duration    null.Int     `json:"duration" form:"duration"`
	MaxMarks    null.Float64 `json:"max_marks" form:"max_marks"`
	PassMarks   null.Float64 `json:"pass_marks" form:"pass_marks"`
}

func (ue *UpdateExam) Validate(orig Exam) error {
	if ue.Name.Valid {
		ue.Name.String = core.CleanString(ue.Name.String)
		if ue.Name.String == "" {
			return core.NewValidationError(nil, core.FieldError{Field: "exam_name", Error: "this field is required"})
		}
	}
	if ue.Duration.Valid && ue.Duration.Int <= 0 {
		return core.NewValidationError(nil, core.FieldError{Field: "duration", Error: "must be greater than 0"})
	}

	maxMarks := orig.MaxMarks
	if ue.MaxMarks.Valid {
		if ue.MaxMarks.Float64 <= 0 {
			return core.NewValidationError(nil, core.FieldError{Field: "max_marks", Error: "must be greater than 0"})
		}
		maxMarks = ue.MaxMarks.Float64
	}
	passMarks := orig.PassMarks
	if ue.PassMarks.Valid {
		passMarks = ue.PassMarks.Float64
	}
	if passMarks < 0 || passMarks > maxMarks {
		return core.NewValidationError(nil, core.FieldError{Field: "pass_marks", Error: "must be between 0 and max_marks"})
	}
	return nil
}

// NewQuestion contains information needed to add a Question to an Exam.
type NewQuestion struct {
	Text          string   `json:"question_text" form:"question_text" validate:"required"`
	Options       []string `json:"options" form:"options" validate:"required,min=2,dive,required"`
	CorrectAnswer string   `json:"correct_answer" form:"correct_answer" validate:"required"`
	Subfield      string   `json:"subfield" form:"subfield" validate:"required"`
}

func (nq *NewQuestion) Validate() error {
	nq.Text = core.CleanString(nq.Text)
	nq.Subfield = core.CleanString(nq.Subfield)
	for i, opt := range nq.Options {
		nq.Options[i] = core.CleanString(opt)
	}
	nq.CorrectAnswer = core.CleanString(nq.CorrectAnswer)

	if err := core.Validate.Struct(nq); err != nil {
		return err
	}
	if !containsString(nq.Options, nq.CorrectAnswer) {
		return core.NewValidationError(nil, core.FieldError{Field: "correct_answer", Error: "must be one of the options"})
	}
	return nil
}

// UpdateQuestion defines what information may be provided to modify an
// existing Question. A nil Options slice means "leave options untouched".
type UpdateQuestion struct {
	Text          null.String `json:"question_text" form:"question_text"`
	Options       []string    `json:"options" form:"options"`
	CorrectAnswer null.String `json:"correct_answer" form:"correct_answer"`
	Subfield      null.String `json:"subfield" form:"subfield"`
}

func (uq *UpdateQuestion) Validate(orig Question) error {
	if uq.Text.Valid {
		uq.Text.String = core.CleanString(uq.Text.String)
		if uq.Text.String == "" {
			return core.NewValidationError(nil, core.FieldError{Field: "question_text", Error: "this field is required"})
		}
	}
	for i, opt := range uq.Options {
		uq.Options[i] = core.CleanString(opt)
	}
	if uq.CorrectAnswer.Valid {
		uq.CorrectAnswer.String = core.CleanString(uq.CorrectAnswer.String)
	}

	options := orig.Options
	if uq.Options != nil {
		if len(uq.Options) < 2 {
			return core.NewValidationError(nil, core.FieldError{Field: "options", Error: "at least 2 options are required"})
		}
		options = uq.Options
	}
	answer := orig.CorrectAnswer
	if uq.CorrectAnswer.Valid {
		answer = uq.CorrectAnswer.String
	}
	if !containsString(options, answer) {
		return core.NewValidationError(nil, core.FieldError{Field: "correct_answer", Error: "must be one of the options"})
	}
	return nil
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
