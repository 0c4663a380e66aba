package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/parikshahq/pariksha/core/exam"
	"github.com/parikshahq/pariksha/core/student"
	"github.com/parikshahq/pariksha/core/typing"
)

func Test_instituteApi_retrieve(t *testing.T) {
	rig := initApp(t)

	own := rig.createOwner(t, "Boss", "boss@test.cd", "b0ss!pwd")
	inst := rig.createInstitute(t, "Sambaza Institute", "samba@test.cd", "SAMBA01", "inst!pwd")
	ghost := rig.createInstitute(t, "Ghost Institute", "ghost@test.cd", "GHOST01", "inst!pwd")
	ghostToken := getToken(t, ghost.ID, RoleInstitute)
	if err := rig.instRepo.DeleteInstitute(context.Background(), ghost.ID); err != nil {
		t.Fatalf("DeleteInstitute() failed: %v", err)
	}

	tests := []httpTest{
		{name: "no token", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "garbage token", token: "lol", wantCode: http.StatusUnauthorized},
		{name: "owner token", token: getToken(t, own.ID, RoleOwner),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})},
		{name: "deleted institute token", token: ghostToken,
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, httpErr{Error: "not authenticated"})},
		{name: "ok", token: getToken(t, inst.ID, RoleInstitute),
			wantCode: http.StatusOK, wantData: marchallObj(t, inst)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/institute", tt.token)
			rig.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_instituteApi_students(t *testing.T) {
	rig := initApp(t)

	inst := rig.createInstitute(t, "Sambaza Institute", "samba@test.cd", "SAMBA01", "inst!pwd")
	other := rig.createInstitute(t, "Tujenge Academy", "tujenge@test.cd", "TUJ2020", "inst!pwd")
	stu := rig.createStudent(t, inst, "Amani", "2024/CS-001", "stu!pwd")
	foreign := rig.createStudent(t, other, "Zawadi", "2024/CS-001", "stu!pwd")

	instToken := getToken(t, inst.ID, RoleInstitute)

	newStu := func(name, roll string) []byte {
		return marchallObj(t, map[string]string{
			"name": name, "roll_number": roll, "password": "stu!pwd8",
		})
	}

	tests := []httpTest{
		{name: "create: no token", method: http.MethodPost, path: "/v1/institute/students",
			body: newStu("Neema", "2024/CS-002"), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "create: bad roll number", method: http.MethodPost, path: "/v1/institute/students", token: instToken,
			body: newStu("Neema", "n@!!"), wantCode: http.StatusBadRequest},
		{name: "create: duplicate roll number", method: http.MethodPost, path: "/v1/institute/students", token: instToken,
			body:     newStu("Copycat", "2024/CS-001"),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"roll_number": student.ErrRollNumberExists.Error()})},
		{name: "create ok", method: http.MethodPost, path: "/v1/institute/students", token: instToken,
			body: newStu("Neema", "2024/CS-002"), wantCode: http.StatusCreated},
		{name: "query ok", method: http.MethodGet, path: "/v1/institute/students", token: instToken,
			wantCode: http.StatusOK},
		{name: "update: not found", method: http.MethodPut, path: "/v1/institute/students/lol", token: instToken,
			body:     marchallObj(t, map[string]string{"name": "Renamed"}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})},
		{name: "update: foreign student", method: http.MethodPut, path: "/v1/institute/students/" + foreign.ID, token: instToken,
			body:     marchallObj(t, map[string]string{"name": "Hijacked"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})},
		{name: "update ok", method: http.MethodPut, path: "/v1/institute/students/" + stu.ID, token: instToken,
			body: marchallObj(t, map[string]string{"name": "Amani Renamed"}), wantCode: http.StatusOK},
		{name: "destroy: foreign student", method: http.MethodDelete, path: "/v1/institute/students/" + foreign.ID, token: instToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})},
		{name: "destroy ok", method: http.MethodDelete, path: "/v1/institute/students/" + stu.ID, token: instToken,
			wantCode: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			rig.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.name == "update ok" {
				var got student.Student
				if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
					t.Fatalf("unmarshalling Student failed: %v", err)
				}
				if got.Name != "Amani Renamed" {
					t.Errorf("name = %v; want %v", got.Name, "Amani Renamed")
				}
				if got.RollNumber != stu.RollNumber {
					t.Errorf("roll_number = %v; want untouched %v", got.RollNumber, stu.RollNumber)
				}
			}
		})
	}
}

func Test_instituteApi_exams(t *testing.T) {
	rig := initApp(t)

	inst := rig.createInstitute(t, "Sambaza Institute", "samba@test.cd", "SAMBA01", "inst!pwd")
	other := rig.createInstitute(t, "Tujenge Academy", "tujenge@test.cd", "TUJ2020", "inst!pwd")
	ex := rig.createExam(t, inst, "Entrance Exam", 100, 40)
	foreignEx := rig.createExam(t, other, "Foreign Exam", 100, 40)
	q := rig.createQuestion(t, ex, "2 + 2 ?", "4", "3", "4", "5")
	foreignQ := rig.createQuestion(t, foreignEx, "3 + 3 ?", "6", "5", "6")

	instToken := getToken(t, inst.ID, RoleInstitute)
	forbidden := marchallObj(t, httpErr{Error: "permission denied"})
	notFound := marchallObj(t, httpErr{Error: "not found"})

	tests := []httpTest{
		{name: "create: missing max marks", method: http.MethodPost, path: "/v1/institute/exams", token: instToken,
			body: marchallObj(t, map[string]interface{}{"exam_name": "Broken"}), wantCode: http.StatusBadRequest},
		{name: "create: pass marks above max", method: http.MethodPost, path: "/v1/institute/exams", token: instToken,
			body:     marchallObj(t, map[string]interface{}{"exam_name": "Broken", "max_marks": 50, "pass_marks": 80}),
			wantCode: http.StatusBadRequest},
		{name: "create ok", method: http.MethodPost, path: "/v1/institute/exams", token: instToken,
			body:     marchallObj(t, map[string]interface{}{"exam_name": "Midterm", "max_marks": 50, "pass_marks": 20}),
			wantCode: http.StatusCreated},
		{name: "query ok", method: http.MethodGet, path: "/v1/institute/exams", token: instToken, wantCode: http.StatusOK},
		{name: "update: foreign exam", method: http.MethodPut, path: "/v1/institute/exams/" + foreignEx.ID, token: instToken,
			body:     marchallObj(t, map[string]string{"exam_name": "Hijacked"}),
			wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "update ok", method: http.MethodPut, path: "/v1/institute/exams/" + ex.ID, token: instToken,
			body: marchallObj(t, map[string]string{"exam_name": "Entrance Exam v2"}), wantCode: http.StatusOK},
		{name: "add question: correct answer not an option", method: http.MethodPost, path: "/v1/institute/exams/" + ex.ID + "/questions", token: instToken,
			body: marchallObj(t, exam.NewQuestion{Text: "5 + 5 ?", Options: []string{"9", "10"}, CorrectAnswer: "11", Subfield: "math"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"correct_answer": "must be one of the options"})},
		{name: "add question: foreign exam", method: http.MethodPost, path: "/v1/institute/exams/" + foreignEx.ID + "/questions", token: instToken,
			body:     marchallObj(t, exam.NewQuestion{Text: "5 + 5 ?", Options: []string{"9", "10"}, CorrectAnswer: "10", Subfield: "math"}),
			wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "add question ok", method: http.MethodPost, path: "/v1/institute/exams/" + ex.ID + "/questions", token: instToken,
			body:     marchallObj(t, exam.NewQuestion{Text: "5 + 5 ?", Options: []string{"9", "10"}, CorrectAnswer: "10", Subfield: "math"}),
			wantCode: http.StatusCreated},
		{name: "query questions ok", method: http.MethodGet, path: "/v1/institute/exams/" + ex.ID + "/questions", token: instToken,
			wantCode: http.StatusOK},
		{name: "update question: foreign", method: http.MethodPut, path: "/v1/institute/questions/" + foreignQ.ID, token: instToken,
			body:     marchallObj(t, map[string]string{"question_text": "Hijacked ?"}),
			wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "update question ok", method: http.MethodPut, path: "/v1/institute/questions/" + q.ID, token: instToken,
			body: marchallObj(t, map[string]string{"question_text": "What is 2 + 2 ?"}), wantCode: http.StatusOK},
		{name: "destroy question: not found", method: http.MethodDelete, path: "/v1/institute/questions/lol", token: instToken,
			wantCode: http.StatusNotFound, wantData: notFound},
		{name: "destroy question ok", method: http.MethodDelete, path: "/v1/institute/questions/" + q.ID, token: instToken,
			wantCode: http.StatusNoContent},
		{name: "destroy exam: foreign", method: http.MethodDelete, path: "/v1/institute/exams/" + foreignEx.ID, token: instToken,
			wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "destroy exam ok", method: http.MethodDelete, path: "/v1/institute/exams/" + ex.ID, token: instToken,
			wantCode: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			rig.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_instituteApi_typingTests(t *testing.T) {
	rig := initApp(t)

	inst := rig.createInstitute(t, "Sambaza Institute", "samba@test.cd", "SAMBA01", "inst!pwd")
	other := rig.createInstitute(t, "Tujenge Academy", "tujenge@test.cd", "TUJ2020", "inst!pwd")
	ex := rig.createExam(t, inst, "Typing Round", 100, 40)
	bare := rig.createExam(t, inst, "No Typing Round", 100, 40)
	foreignEx := rig.createExam(t, other, "Foreign Exam", 100, 40)
	test := rig.createTypingTest(t, ex, "Speed Drill", "the quick brown fox jumps over the lazy dog")
	foreignTest := rig.createTypingTest(t, foreignEx, "Foreign Drill", "lorem ipsum dolor sit amet")

	instToken := getToken(t, inst.ID, RoleInstitute)
	forbidden := marchallObj(t, httpErr{Error: "permission denied"})

	newTest := marchallObj(t, typing.NewTypingTest{Title: "Drill", Passage: "pack my box with five dozen liquor jugs", Duration: 120})

	tests := []httpTest{
		{name: "create: exam already has one", method: http.MethodPost, path: "/v1/institute/exams/" + ex.ID + "/typing-test", token: instToken,
			body: newTest, wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: typing.ErrTestExists.Error()})},
		{name: "create: foreign exam", method: http.MethodPost, path: "/v1/institute/exams/" + foreignEx.ID + "/typing-test", token: instToken,
			body: newTest, wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "create ok", method: http.MethodPost, path: "/v1/institute/exams/" + bare.ID + "/typing-test", token: instToken,
			body: newTest, wantCode: http.StatusCreated},
		{name: "retrieve ok", method: http.MethodGet, path: "/v1/institute/exams/" + ex.ID + "/typing-test", token: instToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, test)},
		{name: "destroy: foreign test", method: http.MethodDelete, path: "/v1/institute/typing-tests/" + foreignTest.ID, token: instToken,
			wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "destroy: not found", method: http.MethodDelete, path: "/v1/institute/typing-tests/lol", token: instToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})},
		{name: "destroy ok", method: http.MethodDelete, path: "/v1/institute/typing-tests/" + test.ID, token: instToken,
			wantCode: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			rig.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
