package typing

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/parikshahq/pariksha/core"
)

var (
	// errors
	ErrNotFound        = errors.New("typing test not found")
	ErrTestExists      = errors.New("this exam already has a typing test")
	ErrInvalidDuration = errors.New("elapsed time must be greater than 0")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		// CreateTest fails with ErrTestExists when the exam already has one.
		CreateTest(ctx context.Context, test TypingTest) (TypingTest, error)
		GetTest(ctx context.Context, id string) (TypingTest, error)
		GetTestByExam(ctx context.Context, examID string) (TypingTest, error)
		DeleteTest(ctx context.Context, id string) error
		// RecordResult appends the result to the test's ledger.
		RecordResult(ctx context.Context, testID string, res TypingResult) error
	}

	// ExamChecker is the slice of the exam store this service needs: proof
	// that the referenced exam is live before attaching a test to it.
	ExamChecker interface {
		ExamExists(ctx context.Context, examID string) error
	}

	Service struct {
		repo  Repository
		exams ExamChecker
	}
)

func NewService(repo Repository, exams ExamChecker) *Service {
	return &Service{repo: repo, exams: exams}
}

func (svc *Service) Create(ctx context.Context, examID string, nt NewTypingTest) (TypingTest, error) {
	if err := svc.exams.ExamExists(ctx, examID); err != nil {
		return TypingTest{}, err
	}
	test := TypingTest{
		ExamID:     examID,
		Title:      nt.Title,
		Passage:    nt.Passage,
		Duration:   nt.Duration,
		TotalWords: len(strings.Fields(nt.Passage)),
		CreatedAt:  nowFunc().UTC(),
	}
	test, err := svc.repo.CreateTest(ctx, test)
	if err != nil {
		if err == ErrTestExists {
			return TypingTest{}, core.NewValidationError(err)
		}
		return TypingTest{}, err
	}
	return test, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (TypingTest, error) {
	return svc.repo.GetTest(ctx, id)
}

func (svc *Service) GetByExam(ctx context.Context, examID string) (TypingTest, error) {
	return svc.repo.GetTestByExam(ctx, examID)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteTest(ctx, id)
}

// Submit scores a typed transcript against the test's reference passage and
// appends the outcome to the result ledger.
//
// Accuracy is index-aligned word matching against the passage: extra or
// missing words beyond the shorter sequence never match. An empty passage
// yields 0 accuracy rather than dividing by zero. WPM is typed words over
// elapsed minutes, rounded to 2 decimals; a non-positive elapsed time is
// rejected outright.
//
// There is deliberately no at-most-once rule here: students retake typing
// tests as often as they like and every run lands in the ledger.
func (svc *Service) Submit(ctx context.Context, testID, studentID, typedText string, elapsedSeconds float64) (TypingScore, error) {
	if elapsedSeconds <= 0 {
		return TypingScore{}, core.NewValidationError(ErrInvalidDuration, core.FieldError{Field: "elapsed_seconds", Error: ErrInvalidDuration.Error()})
	}

	test, err := svc.repo.GetTest(ctx, testID)
	if err != nil {
		return TypingScore{}, err
	}

	passageWords := test.Words()
	typedWords := strings.Fields(typedText)

	var correct int
	for i := 0; i < len(typedWords) && i < len(passageWords); i++ {
		if typedWords[i] == passageWords[i] {
			correct++
		}
	}

	var accuracy float64
	if len(passageWords) > 0 {
		accuracy = float64(correct) / float64(len(passageWords)) * 100
	}
	wpm := math.Round(float64(len(typedWords))/(elapsedSeconds/60)*100) / 100

	res := TypingResult{
		StudentID: studentID,
		WPM:       wpm,
		Accuracy:  accuracy,
		DateTaken: nowFunc().UTC(),
	}
	if err := svc.repo.RecordResult(ctx, test.ID, res); err != nil {
		return TypingScore{}, err
	}
	return TypingScore{WPM: wpm, Accuracy: accuracy}, nil
}
