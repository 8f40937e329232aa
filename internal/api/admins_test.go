package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JeanClaudeMorales/amarillo/internal/auth"
)

func TestAdmins_SuperadminOnly(t *testing.T) {
	srv, router, _ := testServer(t)

	stateID := "st-merida"
	seedAdmin(t, srv, "merida", auth.RoleState, &stateID, nil)
	seedAdmin(t, srv, "national", auth.RoleNational, nil, nil)

	for _, username := range []string{"merida", "national"} {
		token := login(t, router, username, testPassword)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, authedRequest(http.MethodGet, "/api/v1/admins/", token, ""))

		if w.Code != http.StatusForbidden {
			t.Errorf("%s list admins status = %d, want %d", username, w.Code, http.StatusForbidden)
		}
	}
}

func TestCreateAdmin(t *testing.T) {
	srv, router, _ := testServer(t)
	seedAdmin(t, srv, "root", auth.RoleSuperadmin, nil, nil)
	token := login(t, router, "root", testPassword)

	body := `{
		"username": "merida-admin",
		"full_name": "Ana Quintero",
		"password": "long-enough-secret",
		"role": "state",
		"state_id": "st-merida"
	}`
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(http.MethodPost, "/api/v1/admins/", token, body))

	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body: %s", w.Code, w.Body.String())
	}

	var admin auth.Admin
	if err := json.Unmarshal(w.Body.Bytes(), &admin); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if admin.ID == "" {
		t.Error("expected id to be auto-generated")
	}
	if !admin.IsActive {
		t.Error("new admin should start active")
	}

	// The new account can log in immediately.
	login(t, router, "merida-admin", "long-enough-secret")

	// Duplicate username conflicts.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(http.MethodPost, "/api/v1/admins/", token, body))
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate username status = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestCreateAdmin_Validation(t *testing.T) {
	srv, router, _ := testServer(t)
	seedAdmin(t, srv, "root", auth.RoleSuperadmin, nil, nil)
	token := login(t, router, "root", testPassword)

	tests := []struct {
		name string
		body string
	}{
		{"missing password", `{"username": "a-user", "full_name": "A"}`},
		{"short password", `{"username": "a-user", "full_name": "A", "password": "short", "role": "national"}`},
		{"bad username", `{"username": "no spaces!", "full_name": "A", "password": "long-enough", "role": "national"}`},
		{"bad role", `{"username": "a-user", "full_name": "A", "password": "long-enough", "role": "emperor"}`},
		{"state role without anchor", `{"username": "a-user", "full_name": "A", "password": "long-enough", "role": "state"}`},
		{"state role with municipality", `{"username": "a-user", "full_name": "A", "password": "long-enough", "role": "state", "state_id": "st-merida", "municipality_id": "mu-libertador-mer"}`},
		{"municipal role without anchor", `{"username": "a-user", "full_name": "A", "password": "long-enough", "role": "municipal"}`},
		{"national role with anchor", `{"username": "a-user", "full_name": "A", "password": "long-enough", "role": "national", "state_id": "st-merida"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, authedRequest(http.MethodPost, "/api/v1/admins/", token, tt.body))

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d, body: %s", w.Code, http.StatusBadRequest, w.Body.String())
			}
		})
	}
}

func TestUpdateAdmin_SelfProtection(t *testing.T) {
	srv, router, _ := testServer(t)
	root := seedAdmin(t, srv, "root", auth.RoleSuperadmin, nil, nil)
	token := login(t, router, "root", testPassword)

	// Cannot deactivate own account.
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(http.MethodPut, "/api/v1/admins/"+root.ID, token,
		`{"is_active": false}`))
	if w.Code != http.StatusForbidden {
		t.Errorf("self-deactivate status = %d, want %d", w.Code, http.StatusForbidden)
	}

	// Cannot change own role.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(http.MethodPut, "/api/v1/admins/"+root.ID, token,
		`{"role": "national"}`))
	if w.Code != http.StatusForbidden {
		t.Errorf("self-demote status = %d, want %d", w.Code, http.StatusForbidden)
	}

	// Cannot delete own account.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(http.MethodDelete, "/api/v1/admins/"+root.ID, token, ""))
	if w.Code != http.StatusForbidden {
		t.Errorf("self-delete status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestUpdateAdmin_DeactivateKillsLogin(t *testing.T) {
	srv, router, _ := testServer(t)
	seedAdmin(t, srv, "root", auth.RoleSuperadmin, nil, nil)
	other := seedAdmin(t, srv, "national", auth.RoleNational, nil, nil)
	token := login(t, router, "root", testPassword)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(http.MethodPut, "/api/v1/admins/"+other.ID, token,
		`{"is_active": false}`))
	if w.Code != http.StatusOK {
		t.Fatalf("deactivate status = %d, body: %s", w.Code, w.Body.String())
	}

	// Deactivated accounts fail login indistinguishably.
	body := `{"username": "national", "password": "` + testPassword + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("deactivated login status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestUpdateAdmin_RejectedPasswordLeavesNoChanges(t *testing.T) {
	srv, router, _ := testServer(t)
	seedAdmin(t, srv, "root", auth.RoleSuperadmin, nil, nil)
	national := seedAdmin(t, srv, "national", auth.RoleNational, nil, nil)
	token := login(t, router, "root", testPassword)

	// A short password rejects the whole update, including the fields
	// that would otherwise be valid on their own.
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(http.MethodPut, "/api/v1/admins/"+national.ID, token,
		`{"full_name": "Should Not Persist", "email": "nope@example.test", "password": "short"}`))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("short password status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(http.MethodGet, "/api/v1/admins/"+national.ID, token, ""))
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d, body: %s", w.Code, w.Body.String())
	}

	var admin auth.Admin
	if err := json.Unmarshal(w.Body.Bytes(), &admin); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if admin.FullName != "Test national" {
		t.Errorf("full_name = %q, want unchanged Test national", admin.FullName)
	}
	if admin.Email != "" {
		t.Errorf("email = %q, want unchanged empty", admin.Email)
	}

	// The old password still works.
	login(t, router, "national", testPassword)
}

func TestDeleteAdmin(t *testing.T) {
	srv, router, _ := testServer(t)
	seedAdmin(t, srv, "root", auth.RoleSuperadmin, nil, nil)
	second := seedAdmin(t, srv, "root2", auth.RoleSuperadmin, nil, nil)
	national := seedAdmin(t, srv, "national", auth.RoleNational, nil, nil)
	token := login(t, router, "root", testPassword)

	// Superadmin accounts are immutable against deletion.
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(http.MethodDelete, "/api/v1/admins/"+second.ID, token, ""))
	if w.Code != http.StatusForbidden {
		t.Errorf("delete superadmin status = %d, want %d", w.Code, http.StatusForbidden)
	}

	// Other roles are deletable.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(http.MethodDelete, "/api/v1/admins/"+national.ID, token, ""))
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete national status = %d, body: %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(http.MethodGet, "/api/v1/admins/"+national.ID, token, ""))
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestListAdmins_NoPasswordHashes(t *testing.T) {
	srv, router, _ := testServer(t)
	seedAdmin(t, srv, "root", auth.RoleSuperadmin, nil, nil)
	token := login(t, router, "root", testPassword)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(http.MethodGet, "/api/v1/admins/", token, ""))

	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d, body: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Admins []auth.Admin `json:"admins"`
		Count  int          `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Count != 1 {
		t.Errorf("count = %d, want 1", resp.Count)
	}
	body := w.Body.String()
	if strings.Contains(body, "password_hash") || strings.Contains(body, "argon2id") {
		t.Error("password material leaked in admin listing")
	}
}
