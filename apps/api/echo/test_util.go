package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"

	"github.com/parikshahq/pariksha/core"
	"github.com/parikshahq/pariksha/core/exam"
	"github.com/parikshahq/pariksha/core/institute"
	"github.com/parikshahq/pariksha/core/owner"
	"github.com/parikshahq/pariksha/core/student"
	"github.com/parikshahq/pariksha/core/typing"
	emailsvc "github.com/parikshahq/pariksha/services/email"
	inmemdb "github.com/parikshahq/pariksha/storage/database/inmem"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

// testRig wires the whole API onto an in-memory store.
type testRig struct {
	app *echo.Echo

	ownRepo    owner.Repository
	instRepo   institute.Repository
	stuRepo    student.Repository
	examRepo   exam.Repository
	typingRepo typing.Repository

	ownSvc    *owner.Service
	instSvc   *institute.Service
	stuSvc    *student.Service
	examSvc   *exam.Service
	typingSvc *typing.Service
}

type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func initApp(t *testing.T) *testRig {
	t.Helper()

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("initApp() failed: %v", err)
	}

	rig := &testRig{}
	ownRepo := inmemdb.NewOwnerRepository(db)
	instRepo := inmemdb.NewInstituteRepository(db)
	stuRepo := inmemdb.NewStudentRepository(db)
	examRepo := inmemdb.NewExamRepository(db)
	typingRepo := inmemdb.NewTypingRepository(db)
	rig.ownRepo, rig.instRepo, rig.stuRepo = ownRepo, instRepo, stuRepo
	rig.examRepo, rig.typingRepo = examRepo, typingRepo

	mailSvc := emailsvc.NewConsoleServiceMock()
	rig.ownSvc = owner.NewService(core.Conf, ownRepo)
	rig.instSvc = institute.NewService(instRepo, mailSvc)
	rig.stuSvc = student.NewService(stuRepo, mailSvc)
	rig.examSvc = exam.NewService(examRepo, stuRepo)
	rig.typingSvc = typing.NewService(typingRepo, examRepo)

	opts := &Options{
		Logger:         nopLogger{},
		SignalShutdown: func() {},
		OwnerSvc:       rig.ownSvc,
		InstituteSvc:   rig.instSvc,
		StudentSvc:     rig.stuSvc,
		ExamSvc:        rig.examSvc,
		TypingSvc:      rig.typingSvc,
	}

	app := echo.New()
	app.Pre(middleware.RemoveTrailingSlash())
	app.HTTPErrorHandler = newAppHTTPErrorHandler(opts.Logger, opts.SignalShutdown)

	v1 := app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)
	registerAuthAPI(v1, jwt, opts)
	registerOwnerAPI(v1, jwt, opts)
	registerInstituteAPI(v1, jwt, opts)
	registerStudentAPI(v1, jwt, opts)

	rig.app = app
	return rig
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, subjectID, role string) string {
	t.Helper()

	token, err := GenerateToken(getClaims(subjectID, role))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

// Fixtures

func (rig *testRig) createOwner(t *testing.T, name, email, pwd string) owner.Owner {
	t.Helper()

	now := time.Now().UTC()
	own := owner.Owner{Name: name, Email: email, CreatedAt: now, UpdatedAt: now}
	if err := own.SetPassword(pwd); err != nil {
		t.Fatalf("createOwner() failed: %v", err)
	}
	own, err := rig.ownRepo.CreateOwner(context.Background(), own)
	if err != nil {
		t.Fatalf("createOwner() failed: %v", err)
	}
	return own
}

func (rig *testRig) createInstitute(t *testing.T, name, email, uniqueID, pwd string) institute.Institute {
	t.Helper()

	now := time.Now().UTC()
	inst := institute.Institute{
		OwnerName:     name + " Boss",
		InstituteName: name,
		Email:         email,
		UniqueID:      uniqueID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := inst.SetPassword(pwd); err != nil {
		t.Fatalf("createInstitute() failed: %v", err)
	}
	inst, err := rig.instRepo.CreateInstitute(context.Background(), inst)
	if err != nil {
		t.Fatalf("createInstitute() failed: %v", err)
	}
	return inst
}

func (rig *testRig) createStudent(t *testing.T, inst institute.Institute, name, rollNumber, pwd string) student.Student {
	t.Helper()

	now := time.Now().UTC()
	stu := student.Student{
		Name:        name,
		InstituteID: inst.ID,
		RollNumber:  rollNumber,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := stu.SetPassword(pwd); err != nil {
		t.Fatalf("createStudent() failed: %v", err)
	}
	stu, err := rig.stuRepo.CreateStudent(context.Background(), stu)
	if err != nil {
		t.Fatalf("createStudent() failed: %v", err)
	}
	return stu
}

func (rig *testRig) createExam(t *testing.T, inst institute.Institute, name string, maxMarks, passMarks float64) exam.Exam {
	t.Helper()

	now := time.Now().UTC()
	ex := exam.Exam{
		Name:        name,
		InstituteID: inst.ID,
		Duration:    60,
		MaxMarks:    maxMarks,
		PassMarks:   passMarks,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	ex, err := rig.examRepo.CreateExam(context.Background(), ex)
	if err != nil {
		t.Fatalf("createExam() failed: %v", err)
	}
	return ex
}

func (rig *testRig) createQuestion(t *testing.T, ex exam.Exam, text, answer string, options ...string) exam.Question {
	t.Helper()

	q := exam.Question{
		ExamID:        ex.ID,
		Text:          text,
		Options:       options,
		CorrectAnswer: answer,
		Subfield:      "general",
	}
	q, err := rig.examRepo.CreateQuestion(context.Background(), q)
	if err != nil {
		t.Fatalf("createQuestion() failed: %v", err)
	}
	return q
}

func (rig *testRig) createTypingTest(t *testing.T, ex exam.Exam, title, passage string) typing.TypingTest {
	t.Helper()

	test := typing.TypingTest{
		ExamID:     ex.ID,
		Title:      title,
		Passage:    passage,
		Duration:   300,
		TotalWords: len(bytes.Fields([]byte(passage))),
		CreatedAt:  time.Now().UTC(),
	}
	test, err := rig.typingRepo.CreateTest(context.Background(), test)
	if err != nil {
		t.Fatalf("createTypingTest() failed: %v", err)
	}
	return test
}

// Assertions

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()

	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()

	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
