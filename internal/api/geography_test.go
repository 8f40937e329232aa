package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JeanClaudeMorales/amarillo/internal/auth"
	"github.com/JeanClaudeMorales/amarillo/internal/geo"
)

func TestListStates_Scoped(t *testing.T) {
	srv, router, _ := testServer(t)

	stateID := "st-merida"
	muniID := "mu-libertador-mer"
	seedAdmin(t, srv, "root", auth.RoleSuperadmin, nil, nil)
	seedAdmin(t, srv, "merida", auth.RoleState, &stateID, nil)
	seedAdmin(t, srv, "libertador", auth.RoleMunicipal, nil, &muniID)

	tests := []struct {
		name     string
		username string
		want     int
	}{
		{"superadmin sees all states", "root", 24},
		{"state admin sees own state", "merida", 1},
		{"municipal admin sees parent state", "libertador", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := login(t, router, tt.username, testPassword)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, authedRequest(http.MethodGet, "/api/v1/geography/states", token, ""))

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
			}

			var resp struct {
				States []geo.State `json:"states"`
				Count  int         `json:"count"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if resp.Count != tt.want {
				t.Errorf("count = %d, want %d", resp.Count, tt.want)
			}
			if tt.want == 1 && resp.States[0].ID != "st-merida" {
				t.Errorf("state = %s, want st-merida", resp.States[0].ID)
			}
		})
	}
}

func TestListMunicipalities_Scoped(t *testing.T) {
	srv, router, _ := testServer(t)

	stateID := "st-merida"
	muniID := "mu-libertador-mer"
	seedAdmin(t, srv, "root", auth.RoleSuperadmin, nil, nil)
	seedAdmin(t, srv, "merida", auth.RoleState, &stateID, nil)
	seedAdmin(t, srv, "libertador", auth.RoleMunicipal, nil, &muniID)

	// Unrestricted callers must name a state.
	token := login(t, router, "root", testPassword)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(http.MethodGet, "/api/v1/geography/municipalities", token, ""))
	if w.Code != http.StatusBadRequest {
		t.Errorf("unrestricted without state_id status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(http.MethodGet,
		"/api/v1/geography/municipalities?state_id=st-merida", token, ""))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Municipalities []geo.Municipality `json:"municipalities"`
		Count          int                `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Count != 4 {
		t.Errorf("superadmin Mérida municipalities = %d, want 4", resp.Count)
	}

	// A state admin's anchor overrides any state_id they pass.
	token = login(t, router, "merida", testPassword)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(http.MethodGet,
		"/api/v1/geography/municipalities?state_id=st-zulia", token, ""))
	if w.Code != http.StatusOK {
		t.Fatalf("state admin status = %d, body: %s", w.Code, w.Body.String())
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, m := range resp.Municipalities {
		if m.StateID != "st-merida" {
			t.Errorf("state admin leaked municipality %s in state %s", m.ID, m.StateID)
		}
	}

	// A municipal admin gets exactly their own municipality.
	token = login(t, router, "libertador", testPassword)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(http.MethodGet,
		"/api/v1/geography/municipalities?state_id=st-merida", token, ""))
	if w.Code != http.StatusOK {
		t.Fatalf("municipal admin status = %d, body: %s", w.Code, w.Body.String())
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Count != 1 || resp.Municipalities[0].ID != "mu-libertador-mer" {
		t.Errorf("municipal admin sees %+v, want only mu-libertador-mer", resp.Municipalities)
	}
}

func TestListParishes_ScopeContainment(t *testing.T) {
	srv, router, db := testServer(t)

	parish := "pa-arias"
	seedAP(t, db, "ap-lib00001", "AP-LIB-01", &parish)

	stateID := "st-merida"
	muniID := "mu-libertador-mer"
	seedAdmin(t, srv, "merida", auth.RoleState, &stateID, nil)
	seedAdmin(t, srv, "libertador", auth.RoleMunicipal, nil, &muniID)

	// A municipality in a sibling state, outside every admin's scope.
	if _, err := db.ExecContext(context.Background(),
		`INSERT INTO municipalities (id, state_id, name, created_at)
		 VALUES ('mu-maracaibo', 'st-zulia', 'Maracaibo', '2026-01-10T12:00:00Z')`); err != nil {
		t.Fatalf("seeding municipality: %v", err)
	}

	// A state admin reaches municipalities inside their state.
	token := login(t, router, "merida", testPassword)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(http.MethodGet,
		"/api/v1/geography/parishes?municipality_id=mu-libertador-mer", token, ""))
	if w.Code != http.StatusOK {
		t.Fatalf("in-state parishes status = %d, body: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Parishes []geo.ParishStats `json:"parishes"`
		Count    int               `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Count != 5 {
		t.Errorf("Libertador parishes = %d, want 5", resp.Count)
	}
	for _, p := range resp.Parishes {
		if p.ParishID == "pa-arias" && p.AccessPoints != 1 {
			t.Errorf("pa-arias access point rollup = %d, want 1", p.AccessPoints)
		}
	}

	// A municipality outside the state reads as not found.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(http.MethodGet,
		"/api/v1/geography/parishes?municipality_id=mu-maracaibo", token, ""))
	if w.Code != http.StatusNotFound {
		t.Errorf("out-of-state parishes status = %d, want %d", w.Code, http.StatusNotFound)
	}

	// A municipal admin's parameter is overridden by their anchor.
	token = login(t, router, "libertador", testPassword)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(http.MethodGet,
		"/api/v1/geography/parishes?municipality_id=mu-campo-elias", token, ""))
	if w.Code != http.StatusOK {
		t.Fatalf("municipal admin parishes status = %d, body: %s", w.Code, w.Body.String())
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Count != 5 {
		t.Errorf("municipal admin parishes = %d, want own 5", resp.Count)
	}
	for _, p := range resp.Parishes {
		if p.ParishID == "pa-montalban" {
			t.Error("municipal admin leaked a Campo Elías parish")
		}
	}
}

func TestGeographyStats_NarrowedForAnchoredScopes(t *testing.T) {
	srv, router, _ := testServer(t)

	stateID := "st-merida"
	seedAdmin(t, srv, "root", auth.RoleSuperadmin, nil, nil)
	seedAdmin(t, srv, "merida", auth.RoleState, &stateID, nil)

	token := login(t, router, "root", testPassword)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(http.MethodGet, "/api/v1/geography/stats", token, ""))
	if w.Code != http.StatusOK {
		t.Fatalf("superadmin stats status = %d, body: %s", w.Code, w.Body.String())
	}

	var resp struct {
		States []geo.StateStats `json:"states"`
		Count  int              `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Count != 24 {
		t.Errorf("superadmin state rollups = %d, want 24", resp.Count)
	}

	token = login(t, router, "merida", testPassword)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(http.MethodGet, "/api/v1/geography/stats", token, ""))
	if w.Code != http.StatusOK {
		t.Fatalf("state admin stats status = %d, body: %s", w.Code, w.Body.String())
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Count != 1 || resp.States[0].StateID != "st-merida" {
		t.Errorf("state admin rollups = %+v, want only st-merida", resp.States)
	}
}
