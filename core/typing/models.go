package typing

import (
	"strings"
	"time"

	"github.com/parikshahq/pariksha/core"
)

type (
	// TypingTest holds a reference passage students transcribe against the
	// clock. An exam has at most one typing test. Results is append-only and,
	// unlike exam submissions, a student may appear in it many times.
	TypingTest struct {
		ID         string         `json:"id" db:"id"`
		ExamID     string         `json:"exam" db:"exam_id"`
		Title      string         `json:"title" db:"title"`
		Passage    string         `json:"passage" db:"passage"`
		Duration   int            `json:"duration" db:"duration"` // seconds
		TotalWords int            `json:"total_words" db:"total_words"`
		Results    []TypingResult `json:"results" db:"-"`
		CreatedAt  time.Time      `json:"created_at" db:"created_at"` // UTC
	}

	// TypingResult is one entry of a typing test's result ledger.
	TypingResult struct {
		StudentID string    `json:"student" db:"student_id"`
		WPM       float64   `json:"wpm" db:"wpm"`
		Accuracy  float64   `json:"accuracy" db:"accuracy"`
		DateTaken time.Time `json:"date_taken" db:"date_taken"` // UTC
	}

	// TypingScore is what a student gets back from a typing submission.
	TypingScore struct {
		WPM      float64 `json:"wpm"`
		Accuracy float64 `json:"accuracy"`
	}
)

// Words returns the whitespace-delimited words of the reference passage.
func (t *TypingTest) Words() []string {
	return strings.Fields(t.Passage)
}

// NewTypingTest contains information needed to attach a typing test to an exam.
type NewTypingTest struct {
	Title    string `json:"title" form:"title" validate:"required"`
	Passage  string `json:"passage" form:"passage" validate:"required"`
	Duration int    `json:"duration" form:"duration" validate:"required,gt=0"` // seconds
}

func (nt *NewTypingTest) Validate() error {
	nt.Title = core.CleanString(nt.Title)
	nt.Passage = core.CleanString(nt.Passage)
	return core.Validate.Struct(nt)
}
