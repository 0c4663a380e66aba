package exam_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/parikshahq/pariksha/core/exam"
	"github.com/parikshahq/pariksha/core/institute"
	"github.com/parikshahq/pariksha/core/student"
	inmemdb "github.com/parikshahq/pariksha/storage/database/inmem"
)

type fixture struct {
	examSvc *exam.Service
	stuRepo student.Repository
	inst    institute.Institute
	stu     student.Student
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := inmemdb.Open()
	require.NoError(t, err)

	instRepo := inmemdb.NewInstituteRepository(db)
	stuRepo := inmemdb.NewStudentRepository(db)
	examRepo := inmemdb.NewExamRepository(db)

	inst, err := instRepo.CreateInstitute(ctx, institute.Institute{
		OwnerName:     "A. Verma",
		InstituteName: "Verma Classes",
		Email:         "verma@test.in",
		UniqueID:      "VERMA01",
	})
	require.NoError(t, err)

	stu, err := stuRepo.CreateStudent(ctx, student.Student{
		Name:        "Ria",
		InstituteID: inst.ID,
		RollNumber:  "2024/01",
	})
	require.NoError(t, err)

	return &fixture{
		examSvc: exam.NewService(examRepo, stuRepo),
		stuRepo: stuRepo,
		inst:    inst,
		stu:     stu,
	}
}

func (f *fixture) createExam(t *testing.T, maxMarks, passMarks float64, correctAnswers ...string) exam.Exam {
	t.Helper()
	ctx := context.Background()

	ex, err := f.examSvc.Create(ctx, f.inst.ID, exam.NewExam{
		Name:      "Unit Test",
		MaxMarks:  maxMarks,
		PassMarks: passMarks,
	})
	require.NoError(t, err)

	for i, ans := range correctAnswers {
		_, err := f.examSvc.AddQuestion(ctx, ex.ID, exam.NewQuestion{
			Text:          "Q" + string(rune('1'+i)),
			Options:       []string{"A", "B", "C", "X", ans},
			CorrectAnswer: ans,
			Subfield:      "general",
		})
		require.NoError(t, err)
	}
	return ex
}

func TestService_Submit_scoring(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		maxMarks   float64
		passMarks  float64
		correct    []string
		answers    []string
		wantScore  float64
		wantPassed bool
	}{
		{
			// the 3-question scenario: 2/3 right on /30 with pass mark 20
			name:      "two of three correct at the pass mark",
			maxMarks:  30, passMarks: 20,
			correct: []string{"A", "B", "C"}, answers: []string{"A", "X", "C"},
			wantScore: 20, wantPassed: true,
		},
		{
			name:     "all correct",
			maxMarks: 100, passMarks: 40,
			correct: []string{"A", "B"}, answers: []string{"A", "B"},
			wantScore: 100, wantPassed: true,
		},
		{
			name:     "all wrong",
			maxMarks: 100, passMarks: 40,
			correct: []string{"A", "B"}, answers: []string{"B", "A"},
			wantScore: 0, wantPassed: false,
		},
		{
			name:     "missing answers never match",
			maxMarks: 40, passMarks: 10,
			correct: []string{"A", "B", "C", "X"}, answers: []string{"A"},
			wantScore: 10, wantPassed: true,
		},
		{
			name:     "extra answers are ignored",
			maxMarks: 10, passMarks: 10,
			correct: []string{"A"}, answers: []string{"A", "B", "C"},
			wantScore: 10, wantPassed: true,
		},
		{
			name:     "no questions scores zero",
			maxMarks: 30, passMarks: 0,
			correct: nil, answers: []string{"A"},
			wantScore: 0, wantPassed: true, // 0 >= 0
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			ex := f.createExam(t, tt.maxMarks, tt.passMarks, tt.correct...)

			grade, err := f.examSvc.Submit(ctx, ex.ID, f.stu.ID, tt.answers)
			require.NoError(t, err)
			assert.Equal(t, tt.wantScore, grade.Score)
			assert.Equal(t, tt.wantPassed, grade.Passed)
			assert.GreaterOrEqual(t, grade.Score, 0.0)
			assert.LessOrEqual(t, grade.Score, tt.maxMarks)
		})
	}
}

func TestService_Submit_recordsOutcome(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	ex := f.createExam(t, 30, 20, "A", "B", "C")

	grade, err := f.examSvc.Submit(ctx, ex.ID, f.stu.ID, []string{"A", "B", "X"})
	require.NoError(t, err)
	assert.Equal(t, 20.0, grade.Score)

	stu, err := f.stuRepo.GetStudent(ctx, f.stu.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{ex.ID}, stu.ExamsTaken)
	assert.Equal(t, 20.0, stu.Score)
	assert.True(t, stu.Passed)

	got, err := f.examSvc.GetByID(ctx, ex.ID)
	require.NoError(t, err)
	require.Len(t, got.Results, 1)
	assert.Equal(t, f.stu.ID, got.Results[0].StudentID)
	assert.Equal(t, 20.0, got.Results[0].Score)
	assert.True(t, got.Results[0].Passed)
	assert.False(t, got.Results[0].DateTaken.IsZero())
}

func TestService_Submit_atMostOnce(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	ex := f.createExam(t, 30, 20, "A", "B", "C")

	_, err := f.examSvc.Submit(ctx, ex.ID, f.stu.ID, []string{"A", "B", "C"})
	require.NoError(t, err)

	// second attempt is rejected and mutates nothing
	_, err = f.examSvc.Submit(ctx, ex.ID, f.stu.ID, []string{"X", "X", "X"})
	assert.Equal(t, exam.ErrAlreadyAttempted, err)

	stu, err := f.stuRepo.GetStudent(ctx, f.stu.ID)
	require.NoError(t, err)
	assert.Equal(t, 30.0, stu.Score)
	assert.Len(t, stu.ExamsTaken, 1)

	got, err := f.examSvc.GetByID(ctx, ex.ID)
	require.NoError(t, err)
	assert.Len(t, got.Results, 1)
}

func TestService_Submit_notFound(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	ex := f.createExam(t, 30, 20, "A")

	_, err := f.examSvc.Submit(ctx, "nope", f.stu.ID, []string{"A"})
	assert.Equal(t, exam.ErrNotFound, err)

	_, err = f.examSvc.Submit(ctx, ex.ID, "nope", []string{"A"})
	assert.Equal(t, student.ErrNotFound, err)
}

func TestService_DeleteQuestion(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	ex := f.createExam(t, 30, 20, "A", "B")

	questions, err := f.examSvc.QueryQuestions(ctx, ex.ID)
	require.NoError(t, err)
	require.Len(t, questions, 2)

	require.NoError(t, f.examSvc.DeleteQuestion(ctx, questions[0].ID))

	// the exam's list no longer references the question...
	got, err := f.examSvc.GetByID(ctx, ex.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{questions[1].ID}, got.QuestionIDs)

	// ...and the record is gone
	_, err = f.examSvc.GetQuestion(ctx, questions[0].ID)
	assert.Equal(t, exam.ErrQuestionNotFound, err)
}

func TestService_Update_partial(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	ex := f.createExam(t, 30, 20, "A")

	ue := exam.UpdateExam{Name: null.StringFrom("Renamed")}
	require.NoError(t, ue.Validate(ex))

	got, err := f.examSvc.Update(ctx, ex, ue)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)

	// absent fields are untouched
	assert.Equal(t, ex.Description, got.Description)
	assert.Equal(t, ex.Duration, got.Duration)
	assert.Equal(t, ex.MaxMarks, got.MaxMarks)
	assert.Equal(t, ex.PassMarks, got.PassMarks)
	assert.Equal(t, ex.QuestionIDs, got.QuestionIDs)
}

func TestNewQuestion_Validate(t *testing.T) {
	nq := exam.NewQuestion{
		Text:          "Capital of France?",
		Options:       []string{"Paris", "Lyon"},
		CorrectAnswer: "Nice",
		Subfield:      "geography",
	}
	err := nq.Validate()
	require.Error(t, err, "correct answer outside the options must be rejected")

	nq.CorrectAnswer = "Paris"
	assert.NoError(t, nq.Validate())
}

func TestNewExam_Validate(t *testing.T) {
	ne := exam.NewExam{Name: "E", MaxMarks: 30, PassMarks: 40}
	assert.Error(t, ne.Validate(), "pass marks above max marks must be rejected")

	ne.PassMarks = 20
	assert.NoError(t, ne.Validate())
}
