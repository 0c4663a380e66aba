package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/parikshahq/pariksha/core"
	"github.com/parikshahq/pariksha/core/exam"
	"github.com/parikshahq/pariksha/core/institute"
	"github.com/parikshahq/pariksha/core/student"
	"github.com/parikshahq/pariksha/core/typing"
)

type studentApi struct {
	instSvc   *institute.Service
	stuSvc    *student.Service
	examSvc   *exam.Service
	typingSvc *typing.Service
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := studentApi{
		instSvc:   opts.InstituteSvc,
		stuSvc:    opts.StudentSvc,
		examSvc:   opts.ExamSvc,
		typingSvc: opts.TypingSvc,
	}

	sg := g.Group("/student")

	// un-authed endpoints
	sg.POST("/login", api.login)

	// authed endpoints
	ag := sg.Group("", jwt, roleMiddleware(RoleStudent))
	ag.GET("/profile", api.profile)
	ag.GET("/exams", api.queryExams)
	ag.GET("/exams/:id", api.retrieveExam)
	ag.GET("/history", api.history)
	ag.POST("/exams/:id/submit", api.submitExam)
	ag.GET("/typing-tests/:id", api.retrieveTypingTest)
	ag.POST("/typing-tests/:id/submit", api.submitTypingTest)
}

// Exams are served to students stripped of grading material: no correct
// answers, no result ledgers.

type (
	studentQuestion struct {
		ID       string   `json:"id"`
		Text     string   `json:"question_text"`
		Options  []string `json:"options"`
		Subfield string   `json:"subfield"`
	}

	studentExamSummary struct {
		ID          string  `json:"id"`
		Name        string  `json:"exam_name"`
		Description string  `json:"exam_description,omitempty"`
		Duration    int     `json:"duration"`
		MaxMarks    float64 `json:"max_marks"`
		PassMarks   float64 `json:"pass_marks"`
		Attempted   bool    `json:"attempted"`
	}

	studentExamDetail struct {
		studentExamSummary
		Questions []studentQuestion `json:"questions"`
	}

	studentTypingTest struct {
		ID         string `json:"id"`
		ExamID     string `json:"exam"`
		Title      string `json:"title"`
		Passage    string `json:"passage"`
		Duration   int    `json:"duration"`
		TotalWords int    `json:"total_words"`
	}

	historyEntry struct {
		ExamID    string    `json:"exam"`
		ExamName  string    `json:"exam_name"`
		Score     float64   `json:"score"`
		Passed    bool      `json:"passed"`
		DateTaken time.Time `json:"date_taken"`
	}
)

func newStudentExamSummary(ex exam.Exam, stu student.Student) studentExamSummary {
	return studentExamSummary{
		ID:          ex.ID,
		Name:        ex.Name,
		Description: ex.Description,
		Duration:    ex.Duration,
		MaxMarks:    ex.MaxMarks,
		PassMarks:   ex.PassMarks,
		Attempted:   stu.HasTaken(ex.ID),
	}
}

// Handlers

type StudentLoginRequest struct {
	UniqueID   string `json:"unique_id" form:"unique_id" validate:"required"`
	RollNumber string `json:"roll_number" form:"roll_number" validate:"required"`
	Password   string `json:"password" form:"password" validate:"required"`
}

func (lr *StudentLoginRequest) Validate() error {
	lr.UniqueID = core.CleanString(lr.UniqueID)
	lr.RollNumber = core.CleanString(lr.RollNumber)
	return core.Validate.Struct(lr)
}

func (api *studentApi) login(ctx echo.Context) error {
	var data StudentLoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StudentLoginRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := authenticateStudent(ctx, data.UniqueID, data.RollNumber, data.Password, api.instSvc, api.stuSvc)
	if err != nil {
		return err
	}
	token, err := GenerateToken(claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, Role: claims.Role})
}

func (api *studentApi) profile(ctx echo.Context) error {
	stu, err := contextStudent(ctx, api.stuSvc)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stu)
}

func (api *studentApi) queryExams(ctx echo.Context) error {
	stu, err := contextStudent(ctx, api.stuSvc)
	if err != nil {
		return err
	}
	exams, err := api.examSvc.QueryByInstitute(ctx.Request().Context(), stu.InstituteID)
	if err != nil {
		return errors.Wrap(err, "querying exams")
	}

	summaries := make([]studentExamSummary, len(exams))
	for i, ex := range exams {
		summaries[i] = newStudentExamSummary(ex, stu)
	}
	return ctx.JSON(http.StatusOK, summaries)
}

func (api *studentApi) retrieveExam(ctx echo.Context) error {
	stu, ex, err := api.studentExam(ctx)
	if err != nil {
		return err
	}

	questions, err := api.examSvc.QueryQuestions(ctx.Request().Context(), ex.ID)
	if err != nil {
		return err
	}
	detail := studentExamDetail{
		studentExamSummary: newStudentExamSummary(ex, stu),
		Questions:          make([]studentQuestion, len(questions)),
	}
	for i, q := range questions {
		detail.Questions[i] = studentQuestion{
			ID:       q.ID,
			Text:     q.Text,
			Options:  q.Options,
			Subfield: q.Subfield,
		}
	}
	return ctx.JSON(http.StatusOK, detail)
}

func (api *studentApi) history(ctx echo.Context) error {
	stu, err := contextStudent(ctx, api.stuSvc)
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()

	entries := make([]historyEntry, 0, len(stu.ExamsTaken))
	for _, examID := range stu.ExamsTaken {
		ex, err := api.examSvc.GetByID(reqCtx, examID)
		if err != nil {
			if err == exam.ErrNotFound {
				continue // exam deleted since the attempt
			}
			return errors.Wrap(err, "finding taken exam")
		}
		for _, res := range ex.Results {
			if res.StudentID == stu.ID {
				entries = append(entries, historyEntry{
					ExamID:    ex.ID,
					ExamName:  ex.Name,
					Score:     res.Score,
					Passed:    res.Passed,
					DateTaken: res.DateTaken,
				})
				break
			}
		}
	}
	return ctx.JSON(http.StatusOK, entries)
}

type SubmitExamRequest struct {
	Answers []string `json:"answers" form:"answers"`
}

func (api *studentApi) submitExam(ctx echo.Context) error {
	stu, ex, err := api.studentExam(ctx)
	if err != nil {
		return err
	}

	var data SubmitExamRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubmitExamRequest")
	}

	grade, err := api.examSvc.Submit(ctx.Request().Context(), ex.ID, stu.ID, data.Answers)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grade)
}

func (api *studentApi) retrieveTypingTest(ctx echo.Context) error {
	_, test, err := api.studentTest(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, studentTypingTest{
		ID:         test.ID,
		ExamID:     test.ExamID,
		Title:      test.Title,
		Passage:    test.Passage,
		Duration:   test.Duration,
		TotalWords: test.TotalWords,
	})
}

type SubmitTypingRequest struct {
	TypedText      string  `json:"typed_text" form:"typed_text"`
	ElapsedSeconds float64 `json:"elapsed_seconds" form:"elapsed_seconds"`
}

func (api *studentApi) submitTypingTest(ctx echo.Context) error {
	stu, test, err := api.studentTest(ctx)
	if err != nil {
		return err
	}

	var data SubmitTypingRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubmitTypingRequest")
	}

	score, err := api.typingSvc.Submit(ctx.Request().Context(), test.ID, stu.ID, data.TypedText, data.ElapsedSeconds)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, score)
}

// studentExam resolves the :id exam and checks it belongs to the student's
// institute; a foreign exam is forbidden, not hidden.
func (api *studentApi) studentExam(ctx echo.Context) (student.Student, exam.Exam, error) {
	stu, err := contextStudent(ctx, api.stuSvc)
	if err != nil {
		return student.Student{}, exam.Exam{}, err
	}
	ex, err := api.examSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if err == exam.ErrNotFound {
			return student.Student{}, exam.Exam{}, errHttpNotFound
		}
		return student.Student{}, exam.Exam{}, errors.Wrap(err, "finding exam by ID")
	}
	if ex.InstituteID != stu.InstituteID {
		return student.Student{}, exam.Exam{}, errHttpForbidden
	}
	return stu, ex, nil
}

func (api *studentApi) studentTest(ctx echo.Context) (student.Student, typing.TypingTest, error) {
	stu, err := contextStudent(ctx, api.stuSvc)
	if err != nil {
		return student.Student{}, typing.TypingTest{}, err
	}
	reqCtx := ctx.Request().Context()
	test, err := api.typingSvc.GetByID(reqCtx, ctx.Param("id"))
	if err != nil {
		if err == typing.ErrNotFound {
			return student.Student{}, typing.TypingTest{}, errHttpNotFound
		}
		return student.Student{}, typing.TypingTest{}, errors.Wrap(err, "finding typing test by ID")
	}
	ex, err := api.examSvc.GetByID(reqCtx, test.ExamID)
	if err != nil {
		return student.Student{}, typing.TypingTest{}, errors.Wrap(err, "finding owning exam")
	}
	if ex.InstituteID != stu.InstituteID {
		return student.Student{}, typing.TypingTest{}, errHttpForbidden
	}
	return stu, test, nil
}
