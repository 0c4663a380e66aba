package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/parikshahq/pariksha/core"
	"github.com/parikshahq/pariksha/core/exam"
	"github.com/parikshahq/pariksha/core/institute"
	"github.com/parikshahq/pariksha/core/student"
	"github.com/parikshahq/pariksha/core/typing"
)

var (
	errStuNotFoundInCtx  = errors.New("student object not found in echo.Context")
	errExamNotFoundInCtx = errors.New("exam object not found in echo.Context")
	errQstNotFoundInCtx  = errors.New("question object not found in echo.Context")
	errTestNotFoundInCtx = errors.New("typing test object not found in echo.Context")
)

type instituteApi struct {
	instSvc   *institute.Service
	stuSvc    *student.Service
	examSvc   *exam.Service
	typingSvc *typing.Service
	fileStore core.FileStore
}

func registerInstituteAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := instituteApi{
		instSvc:   opts.InstituteSvc,
		stuSvc:    opts.StudentSvc,
		examSvc:   opts.ExamSvc,
		typingSvc: opts.TypingSvc,
		fileStore: opts.FileStore,
	}

	ig := g.Group("/institute", jwt, roleMiddleware(RoleInstitute))
	ig.GET("", api.retrieve)

	sg := ig.Group("/students")
	sg.POST("", api.createStudent)
	sg.GET("", api.queryStudents)
	sdg := sg.Group("/:id", api.ctxStudentMiddleware())
	sdg.PUT("", api.updateStudent)
	sdg.DELETE("", api.destroyStudent)

	eg := ig.Group("/exams")
	eg.POST("", api.createExam)
	eg.GET("", api.queryExams)
	edg := eg.Group("/:id", api.ctxExamMiddleware())
	edg.PUT("", api.updateExam)
	edg.DELETE("", api.destroyExam)
	edg.POST("/questions", api.addQuestion)
	edg.GET("/questions", api.queryQuestions)
	edg.POST("/typing-test", api.createTypingTest)
	edg.GET("/typing-test", api.retrieveTypingTest)

	qdg := ig.Group("/questions/:id", api.ctxQuestionMiddleware())
	qdg.PUT("", api.updateQuestion)
	qdg.DELETE("", api.destroyQuestion)

	tdg := ig.Group("/typing-tests/:id", api.ctxTypingTestMiddleware())
	tdg.DELETE("", api.destroyTypingTest)
}

// Handlers

func (api *instituteApi) retrieve(ctx echo.Context) error {
	inst, err := contextInstitute(ctx, api.instSvc)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, inst)
}

// Students

func (api *instituteApi) createStudent(ctx echo.Context) error {
	inst, err := contextInstitute(ctx, api.instSvc)
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()

	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(reqCtx, inst.ID, api.stuSvc); err != nil {
		return err
	}
	if data.ProfileImageURL, err = storeUpload(ctx, api.fileStore, "profile_image"); err != nil {
		return err
	}

	stu, err := api.stuSvc.Create(reqCtx, inst, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, stu)
}

func (api *instituteApi) queryStudents(ctx echo.Context) error {
	inst, err := contextInstitute(ctx, api.instSvc)
	if err != nil {
		return err
	}
	students, err := api.stuSvc.QueryByInstitute(ctx.Request().Context(), inst.ID)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *instituteApi) updateStudent(ctx echo.Context) error {
	stu, ok := ctx.Get("object").(student.Student)
	if !ok {
		return errors.Wrap(errStuNotFoundInCtx, "retrieving object from context")
	}
	reqCtx := ctx.Request().Context()

	var data student.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err := data.Validate(reqCtx, stu, api.stuSvc); err != nil {
		return err
	}

	var err error
	if data.ProfileImageURL, err = storeUpload(ctx, api.fileStore, "profile_image"); err != nil {
		return err
	}

	stu, err = api.stuSvc.Update(reqCtx, stu, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stu)
}

func (api *instituteApi) destroyStudent(ctx echo.Context) error {
	stu, ok := ctx.Get("object").(student.Student)
	if !ok {
		return errors.Wrap(errStuNotFoundInCtx, "retrieving object from context")
	}
	if err := api.stuSvc.Delete(ctx.Request().Context(), stu.ID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Exams

func (api *instituteApi) createExam(ctx echo.Context) error {
	inst, err := contextInstitute(ctx, api.instSvc)
	if err != nil {
		return err
	}

	var data exam.NewExam
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewExam")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	ex, err := api.examSvc.Create(ctx.Request().Context(), inst.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, ex)
}

func (api *instituteApi) queryExams(ctx echo.Context) error {
	inst, err := contextInstitute(ctx, api.instSvc)
	if err != nil {
		return err
	}
	exams, err := api.examSvc.QueryByInstitute(ctx.Request().Context(), inst.ID)
	if err != nil {
		return errors.Wrap(err, "querying exams")
	}
	return ctx.JSON(http.StatusOK, exams)
}

func (api *instituteApi) updateExam(ctx echo.Context) error {
	ex, ok := ctx.Get("object").(exam.Exam)
	if !ok {
		return errors.Wrap(errExamNotFoundInCtx, "retrieving object from context")
	}

	var data exam.UpdateExam
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateExam")
	}
	if err := data.Validate(ex); err != nil {
		return err
	}

	ex, err := api.examSvc.Update(ctx.Request().Context(), ex, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ex)
}

func (api *instituteApi) destroyExam(ctx echo.Context) error {
	ex, ok := ctx.Get("object").(exam.Exam)
	if !ok {
		return errors.Wrap(errExamNotFoundInCtx, "retrieving object from context")
	}
	if err := api.examSvc.Delete(ctx.Request().Context(), ex.ID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Questions

func (api *instituteApi) addQuestion(ctx echo.Context) error {
	ex, ok := ctx.Get("object").(exam.Exam)
	if !ok {
		return errors.Wrap(errExamNotFoundInCtx, "retrieving object from context")
	}

	var data exam.NewQuestion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuestion")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	q, err := api.examSvc.AddQuestion(ctx.Request().Context(), ex.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, q)
}

func (api *instituteApi) queryQuestions(ctx echo.Context) error {
	ex, ok := ctx.Get("object").(exam.Exam)
	if !ok {
		return errors.Wrap(errExamNotFoundInCtx, "retrieving object from context")
	}
	questions, err := api.examSvc.QueryQuestions(ctx.Request().Context(), ex.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, questions)
}

func (api *instituteApi) updateQuestion(ctx echo.Context) error {
	q, ok := ctx.Get("object").(exam.Question)
	if !ok {
		return errors.Wrap(errQstNotFoundInCtx, "retrieving object from context")
	}

	var data exam.UpdateQuestion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateQuestion")
	}
	if err := data.Validate(q); err != nil {
		return err
	}

	q, err := api.examSvc.UpdateQuestion(ctx.Request().Context(), q, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, q)
}

func (api *instituteApi) destroyQuestion(ctx echo.Context) error {
	q, ok := ctx.Get("object").(exam.Question)
	if !ok {
		return errors.Wrap(errQstNotFoundInCtx, "retrieving object from context")
	}
	if err := api.examSvc.DeleteQuestion(ctx.Request().Context(), q.ID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Typing tests

func (api *instituteApi) createTypingTest(ctx echo.Context) error {
	ex, ok := ctx.Get("object").(exam.Exam)
	if !ok {
		return errors.Wrap(errExamNotFoundInCtx, "retrieving object from context")
	}

	var data typing.NewTypingTest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTypingTest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	test, err := api.typingSvc.Create(ctx.Request().Context(), ex.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, test)
}

func (api *instituteApi) retrieveTypingTest(ctx echo.Context) error {
	ex, ok := ctx.Get("object").(exam.Exam)
	if !ok {
		return errors.Wrap(errExamNotFoundInCtx, "retrieving object from context")
	}
	test, err := api.typingSvc.GetByExam(ctx.Request().Context(), ex.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, test)
}

func (api *instituteApi) destroyTypingTest(ctx echo.Context) error {
	test, ok := ctx.Get("object").(typing.TypingTest)
	if !ok {
		return errors.Wrap(errTestNotFoundInCtx, "retrieving object from context")
	}
	if err := api.typingSvc.Delete(ctx.Request().Context(), test.ID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Ownership middlewares: a resource that exists but belongs to another
// institute is forbidden, not hidden.

func (api *instituteApi) ctxStudentMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			inst, err := contextInstitute(ctx, api.instSvc)
			if err != nil {
				return err
			}
			stu, err := api.stuSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if err == student.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding student by ID")
			}
			if stu.InstituteID != inst.ID {
				return errHttpForbidden
			}
			ctx.Set("object", stu)
			return next(ctx)
		}
	}
}

func (api *instituteApi) ctxExamMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			inst, err := contextInstitute(ctx, api.instSvc)
			if err != nil {
				return err
			}
			ex, err := api.examSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if err == exam.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding exam by ID")
			}
			if ex.InstituteID != inst.ID {
				return errHttpForbidden
			}
			ctx.Set("object", ex)
			return next(ctx)
		}
	}
}

func (api *instituteApi) ctxQuestionMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			inst, err := contextInstitute(ctx, api.instSvc)
			if err != nil {
				return err
			}
			reqCtx := ctx.Request().Context()
			q, err := api.examSvc.GetQuestion(reqCtx, ctx.Param("id"))
			if err != nil {
				if err == exam.ErrQuestionNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding question by ID")
			}
			ex, err := api.examSvc.GetByID(reqCtx, q.ExamID)
			if err != nil {
				return errors.Wrap(err, "finding owning exam")
			}
			if ex.InstituteID != inst.ID {
				return errHttpForbidden
			}
			ctx.Set("object", q)
			return next(ctx)
		}
	}
}

func (api *instituteApi) ctxTypingTestMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			inst, err := contextInstitute(ctx, api.instSvc)
			if err != nil {
				return err
			}
			reqCtx := ctx.Request().Context()
			test, err := api.typingSvc.GetByID(reqCtx, ctx.Param("id"))
			if err != nil {
				if err == typing.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding typing test by ID")
			}
			ex, err := api.examSvc.GetByID(reqCtx, test.ExamID)
			if err != nil {
				return errors.Wrap(err, "finding owning exam")
			}
			if ex.InstituteID != inst.ID {
				return errHttpForbidden
			}
			ctx.Set("object", test)
			return next(ctx)
		}
	}
}
