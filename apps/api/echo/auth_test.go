package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/parikshahq/pariksha/core"
)

func Test_authApi_refreshToken(t *testing.T) {
	rig := initApp(t)

	own := rig.createOwner(t, "Boss", "boss@test.cd", "b0ss!pwd")
	inst := rig.createInstitute(t, "Sambaza Institute", "samba@test.cd", "SAMBA01", "inst!pwd")
	stu := rig.createStudent(t, inst, "Amani", "2024/CS-001", "stu!pwd8")

	ghost := rig.createStudent(t, inst, "Ghost", "2024/CS-666", "stu!pwd8")
	ghostToken := getToken(t, ghost.ID, RoleStudent)
	if err := rig.stuRepo.DeleteStudent(context.Background(), ghost.ID); err != nil {
		t.Fatalf("DeleteStudent() failed: %v", err)
	}

	staleOriat := time.Now().Add(-(core.Conf.Server.JWTRefreshExpirationDelta + time.Hour)).Unix()
	staleToken, err := GenerateToken(getClaims(own.ID, RoleOwner, staleOriat))
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}

	tests := []httpTest{
		{name: "no token", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "deleted principal", token: ghostToken,
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, httpErr{Error: "not authenticated"})},
		{name: "refresh window passed", token: staleToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"})},
		{name: "owner ok", token: getToken(t, own.ID, RoleOwner), wantCode: http.StatusOK, extra: RoleOwner},
		{name: "institute ok", token: getToken(t, inst.ID, RoleInstitute), wantCode: http.StatusOK, extra: RoleInstitute},
		{name: "student ok", token: getToken(t, stu.ID, RoleStudent), wantCode: http.StatusOK, extra: RoleStudent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/token-refresh", tt.token)
			rig.app.ServeHTTP(rec, req)

			checkCodeAndData(t, tt, rec)
			if wantRole, ok := tt.extra.(string); ok {
				var resp LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("unmarshalling LoginResponse failed: %v", err)
				}
				if resp.Token == "" {
					t.Error("expected a fresh token")
				}
				if resp.Role != wantRole {
					t.Errorf("role = %v; want %v", resp.Role, wantRole)
				}
			}
		})
	}
}
