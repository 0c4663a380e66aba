package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/parikshahq/pariksha/core/institute"
)

func Test_ownerApi_login(t *testing.T) {
	rig := initApp(t)

	rig.createOwner(t, "Boss", "boss@test.cd", "b0ss!pwd")
	rig.createInstitute(t, "Sambaza Institute", "samba@test.cd", "SAMBA01", "inst!pwd")

	authFailed := marchallObj(t, httpErr{Error: "authentication failed"})

	tests := []httpTest{
		{name: "empty body", wantCode: http.StatusBadRequest},
		{name: "unknown email", body: marchallObj(t, LoginRequest{Email: "lol@test.cd", Password: "lol"}),
			wantCode: http.StatusBadRequest, wantData: authFailed},
		{name: "owner: wrong password", body: marchallObj(t, LoginRequest{Email: "boss@test.cd", Password: "lol"}),
			wantCode: http.StatusBadRequest, wantData: authFailed},
		{name: "institute: wrong password", body: marchallObj(t, LoginRequest{Email: "samba@test.cd", Password: "lol"}),
			wantCode: http.StatusBadRequest, wantData: authFailed},
		{name: "owner ok", body: marchallObj(t, LoginRequest{Email: "boss@test.cd", Password: "b0ss!pwd"}),
			wantCode: http.StatusOK, extra: RoleOwner},
		{name: "owner ok (case-insensitive email)", body: marchallObj(t, LoginRequest{Email: "BOSS@test.cd", Password: "b0ss!pwd"}),
			wantCode: http.StatusOK, extra: RoleOwner},
		{name: "institute ok", body: marchallObj(t, LoginRequest{Email: "samba@test.cd", Password: "inst!pwd"}),
			wantCode: http.StatusOK, extra: RoleInstitute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/owner/login", tt.body)
			rig.app.ServeHTTP(rec, req)

			checkCodeAndData(t, tt, rec)
			if wantRole, ok := tt.extra.(string); ok {
				var resp LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("unmarshalling LoginResponse failed: %v", err)
				}
				if resp.Token == "" {
					t.Error("expected a token")
				}
				if resp.Role != wantRole {
					t.Errorf("role = %v; want %v", resp.Role, wantRole)
				}
			}
		})
	}
}

func Test_ownerApi_bootstrap(t *testing.T) {
	rig := initApp(t)

	body := func(name, email, pwd, confirm string) []byte {
		return marchallObj(t, map[string]string{
			"name": name, "email": email, "password": pwd, "password_confirm": confirm,
		})
	}

	tests := []httpTest{
		{name: "empty body", wantCode: http.StatusBadRequest},
		{name: "password mismatch", body: body("Boss", "boss@test.cd", "b0ss!pwd", "lol"), wantCode: http.StatusBadRequest},
		{name: "ok", body: body("Boss", "boss@test.cd", "b0ss!pwd", "b0ss!pwd"), wantCode: http.StatusCreated},
		{name: "second owner refused", body: body("Rival", "rival@test.cd", "lolz!pwd", "lolz!pwd"),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "an owner account already exists"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/owner/bootstrap", tt.body)
			rig.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_ownerApi_institutes(t *testing.T) {
	rig := initApp(t)

	own := rig.createOwner(t, "Boss", "boss@test.cd", "b0ss!pwd")
	inst1 := rig.createInstitute(t, "Sambaza Institute", "samba@test.cd", "SAMBA01", "inst!pwd")
	inst2 := rig.createInstitute(t, "Tujenge Academy", "tujenge@test.cd", "TUJ2020", "inst!pwd")
	stu := rig.createStudent(t, inst1, "Amani", "STU-001", "stu!pwd")

	ownToken := getToken(t, own.ID, RoleOwner)
	instToken := getToken(t, inst1.ID, RoleInstitute)
	stuToken := getToken(t, stu.ID, RoleStudent)

	forbidden := marchallObj(t, httpErr{Error: "permission denied"})

	newInst := func(name, email, uid string) []byte {
		return marchallObj(t, map[string]string{
			"owner_name":       name + " Boss",
			"institute_name":   name,
			"email":            email,
			"unique_id":        uid,
			"password":         "inst!pwd",
			"password_confirm": "inst!pwd",
		})
	}

	tests := []httpTest{
		{name: "query: no token", method: http.MethodGet, path: "/v1/owner/institutes",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "query: institute token", method: http.MethodGet, path: "/v1/owner/institutes", token: instToken,
			wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "query: student token", method: http.MethodGet, path: "/v1/owner/institutes", token: stuToken,
			wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "query ok", method: http.MethodGet, path: "/v1/owner/institutes", token: ownToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, []institute.Institute{inst1, inst2})},
		{name: "create: duplicate email", method: http.MethodPost, path: "/v1/owner/institutes", token: ownToken,
			body:     newInst("Copycat", "samba@test.cd", "COPY001"),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"email": institute.ErrEmailExists.Error()})},
		{name: "create: duplicate unique ID", method: http.MethodPost, path: "/v1/owner/institutes", token: ownToken,
			body:     newInst("Copycat", "copy@test.cd", "SAMBA01"),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"unique_id": institute.ErrUniqueIDExists.Error()})},
		{name: "create ok", method: http.MethodPost, path: "/v1/owner/institutes", token: ownToken,
			body: newInst("Fresh Institute", "fresh@test.cd", "FRESH01"), wantCode: http.StatusCreated},
		{name: "update: not found", method: http.MethodPut, path: "/v1/owner/institutes/lol", token: ownToken,
			body:     marchallObj(t, map[string]string{"institute_name": "Renamed"}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})},
		{name: "update ok", method: http.MethodPut, path: "/v1/owner/institutes/" + inst2.ID, token: ownToken,
			body: marchallObj(t, map[string]string{"institute_name": "Tujenge Renamed"}), wantCode: http.StatusOK},
		{name: "destroy: institute token", method: http.MethodDelete, path: "/v1/owner/institutes/" + inst2.ID, token: instToken,
			wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "destroy: not found", method: http.MethodDelete, path: "/v1/owner/institutes/lol", token: ownToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})},
		{name: "destroy ok", method: http.MethodDelete, path: "/v1/owner/institutes/" + inst2.ID, token: ownToken,
			wantCode: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			rig.app.ServeHTTP(rec, req)

			checkCodeAndData(t, tt, rec)

			if tt.name == "update ok" {
				var got institute.Institute
				if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
					t.Fatalf("unmarshalling Institute failed: %v", err)
				}
				if got.InstituteName != "Tujenge Renamed" {
					t.Errorf("institute_name = %v; want %v", got.InstituteName, "Tujenge Renamed")
				}
				if got.UniqueID != inst2.UniqueID {
					t.Errorf("unique_id = %v; want untouched %v", got.UniqueID, inst2.UniqueID)
				}
			}
		})
	}
}
