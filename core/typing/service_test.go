package typing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parikshahq/pariksha/core"
	"github.com/parikshahq/pariksha/core/exam"
	"github.com/parikshahq/pariksha/core/institute"
	"github.com/parikshahq/pariksha/core/typing"
	inmemdb "github.com/parikshahq/pariksha/storage/database/inmem"
)

func setup(t *testing.T) (*typing.Service, exam.Exam) {
	t.Helper()
	ctx := context.Background()

	db, err := inmemdb.Open()
	require.NoError(t, err)

	instRepo := inmemdb.NewInstituteRepository(db)
	examRepo := inmemdb.NewExamRepository(db)

	inst, err := instRepo.CreateInstitute(ctx, institute.Institute{
		OwnerName:     "A. Verma",
		InstituteName: "Verma Classes",
		Email:         "verma@test.in",
		UniqueID:      "VERMA01",
	})
	require.NoError(t, err)

	ex, err := examRepo.CreateExam(ctx, exam.Exam{
		Name:        "Typing Round",
		InstituteID: inst.ID,
		MaxMarks:    10,
	})
	require.NoError(t, err)

	return typing.NewService(inmemdb.NewTypingRepository(db), examRepo), ex
}

func createTest(t *testing.T, svc *typing.Service, examID, passage string) typing.TypingTest {
	t.Helper()
	test, err := svc.Create(context.Background(), examID, typing.NewTypingTest{
		Title:    "Speed Round",
		Passage:  passage,
		Duration: 60,
	})
	require.NoError(t, err)
	return test
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	svc, ex := setup(t)

	test := createTest(t, svc, ex.ID, "the quick brown fox")
	assert.Equal(t, 4, test.TotalWords)
	assert.Equal(t, ex.ID, test.ExamID)

	// at most one test per exam
	_, err := svc.Create(ctx, ex.ID, typing.NewTypingTest{Title: "Again", Passage: "more words", Duration: 30})
	require.IsType(t, &core.ValidationError{}, err)

	// unknown exam
	_, err = svc.Create(ctx, "nope", typing.NewTypingTest{Title: "X", Passage: "y", Duration: 30})
	assert.Equal(t, exam.ErrNotFound, err)
}

func TestService_Submit(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		passage      string
		typed        string
		elapsed      float64
		wantWPM      float64
		wantAccuracy float64
	}{
		{
			// the reference scenario: perfect transcript in 12s
			name:    "perfect transcript",
			passage: "the quick brown fox", typed: "the quick brown fox",
			elapsed: 12, wantWPM: 20, wantAccuracy: 100,
		},
		{
			name:    "one word wrong",
			passage: "the quick brown fox", typed: "the quick brawn fox",
			elapsed: 12, wantWPM: 20, wantAccuracy: 75,
		},
		{
			name:    "shifted words do not match",
			passage: "the quick brown fox", typed: "quick brown fox",
			elapsed: 30, wantWPM: 6, wantAccuracy: 0,
		},
		{
			name:    "extra words beyond the passage never match",
			passage: "the quick", typed: "the quick brown fox jumps over",
			elapsed: 60, wantWPM: 6, wantAccuracy: 100,
		},
		{
			name:    "empty transcript",
			passage: "the quick brown fox", typed: "",
			elapsed: 10, wantWPM: 0, wantAccuracy: 0,
		},
		{
			name:    "wpm is rounded to 2 decimals",
			passage: "a b c", typed: "a b c",
			elapsed: 7, wantWPM: 25.71, wantAccuracy: 100,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, ex := setup(t)
			test := createTest(t, svc, ex.ID, tt.passage)

			score, err := svc.Submit(ctx, test.ID, "student-1", tt.typed, tt.elapsed)
			require.NoError(t, err)
			assert.Equal(t, tt.wantWPM, score.WPM)
			assert.Equal(t, tt.wantAccuracy, score.Accuracy)
			assert.GreaterOrEqual(t, score.Accuracy, 0.0)
			assert.LessOrEqual(t, score.Accuracy, 100.0)
			assert.GreaterOrEqual(t, score.WPM, 0.0)
		})
	}
}

func TestService_Submit_invalidElapsed(t *testing.T) {
	ctx := context.Background()
	svc, ex := setup(t)
	test := createTest(t, svc, ex.ID, "some words here")

	for _, elapsed := range []float64{0, -3} {
		_, err := svc.Submit(ctx, test.ID, "student-1", "some words", elapsed)
		require.IsType(t, &core.ValidationError{}, err)
	}

	// nothing was recorded
	got, err := svc.GetByID(ctx, test.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Results)
}

func TestService_Submit_noSingleAttemptRule(t *testing.T) {
	ctx := context.Background()
	svc, ex := setup(t)
	test := createTest(t, svc, ex.ID, "practice makes perfect")

	// unlike exams, retakes are welcome and all land in the ledger
	for i := 0; i < 3; i++ {
		_, err := svc.Submit(ctx, test.ID, "student-1", "practice makes perfect", 30)
		require.NoError(t, err)
	}

	got, err := svc.GetByID(ctx, test.ID)
	require.NoError(t, err)
	assert.Len(t, got.Results, 3)
}

func TestService_Submit_notFound(t *testing.T) {
	svc, _ := setup(t)
	_, err := svc.Submit(context.Background(), "nope", "student-1", "text", 10)
	assert.Equal(t, typing.ErrNotFound, err)
}
