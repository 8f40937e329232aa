package geo

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/JeanClaudeMorales/amarillo/internal/infrastructure/database"
	_ "github.com/JeanClaudeMorales/amarillo/migrations"
)

// testDB creates a temporary migrated database for testing.
func testDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return db
}

func TestListStates(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteRepository(db.DB)

	states, err := repo.ListStates(context.Background())
	if err != nil {
		t.Fatalf("ListStates() error = %v", err)
	}
	if len(states) != 24 {
		t.Errorf("len(states) = %d, want 24", len(states))
	}
	for i := 1; i < len(states); i++ {
		if states[i-1].Name > states[i].Name {
			t.Errorf("states not sorted: %q before %q", states[i-1].Name, states[i].Name)
		}
	}
}

func TestGetState(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteRepository(db.DB)
	ctx := context.Background()

	state, err := repo.GetState(ctx, "st-merida")
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if state.Name != "Mérida" {
		t.Errorf("Name = %q, want %q", state.Name, "Mérida")
	}
	if state.ISOCode != "VE-L" {
		t.Errorf("ISOCode = %q, want %q", state.ISOCode, "VE-L")
	}

	_, err = repo.GetState(ctx, "st-nope")
	if !errors.Is(err, ErrStateNotFound) {
		t.Errorf("GetState(unknown) error = %v, want ErrStateNotFound", err)
	}
}

func TestListMunicipalitiesByState(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteRepository(db.DB)
	ctx := context.Background()

	municipalities, err := repo.ListMunicipalitiesByState(ctx, "st-merida")
	if err != nil {
		t.Fatalf("ListMunicipalitiesByState() error = %v", err)
	}
	if len(municipalities) != 4 {
		t.Errorf("len(municipalities) = %d, want 4", len(municipalities))
	}

	empty, err := repo.ListMunicipalitiesByState(ctx, "st-zulia")
	if err != nil {
		t.Fatalf("ListMunicipalitiesByState(unseeded) error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("unseeded state returned %d municipalities", len(empty))
	}
}

func TestGetMunicipality_NotFound(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteRepository(db.DB)

	_, err := repo.GetMunicipality(context.Background(), "mu-nope")
	if !errors.Is(err, ErrMunicipalityNotFound) {
		t.Errorf("error = %v, want ErrMunicipalityNotFound", err)
	}
}

func TestListParishesByMunicipality(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteRepository(db.DB)

	parishes, err := repo.ListParishesByMunicipality(context.Background(), "mu-libertador-mer")
	if err != nil {
		t.Fatalf("ListParishesByMunicipality() error = %v", err)
	}
	if len(parishes) != 5 {
		t.Errorf("len(parishes) = %d, want 5", len(parishes))
	}
	for _, p := range parishes {
		if p.MunicipalityID != "mu-libertador-mer" {
			t.Errorf("parish %s has municipality %s", p.ID, p.MunicipalityID)
		}
	}
}

func TestGetParish(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteRepository(db.DB)
	ctx := context.Background()

	parish, err := repo.GetParish(ctx, "pa-lagunillas")
	if err != nil {
		t.Fatalf("GetParish() error = %v", err)
	}
	if parish.Name != "Lagunillas" {
		t.Errorf("Name = %q, want %q", parish.Name, "Lagunillas")
	}

	_, err = repo.GetParish(ctx, "pa-nope")
	if !errors.Is(err, ErrParishNotFound) {
		t.Errorf("GetParish(unknown) error = %v, want ErrParishNotFound", err)
	}
}

func TestParishAncestry(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteRepository(db.DB)
	ctx := context.Background()

	a, err := repo.ParishAncestry(ctx, "pa-arias")
	if err != nil {
		t.Fatalf("ParishAncestry() error = %v", err)
	}
	if a.MunicipalityID != "mu-libertador-mer" {
		t.Errorf("MunicipalityID = %q, want %q", a.MunicipalityID, "mu-libertador-mer")
	}
	if a.StateID != "st-merida" {
		t.Errorf("StateID = %q, want %q", a.StateID, "st-merida")
	}

	_, err = repo.ParishAncestry(ctx, "pa-nope")
	if !errors.Is(err, ErrParishNotFound) {
		t.Errorf("ParishAncestry(unknown) error = %v, want ErrParishNotFound", err)
	}
}

func TestParishStatsByMunicipality(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteRepository(db.DB)
	ctx := context.Background()

	seed := []string{
		`INSERT INTO access_points (id, name, code, parish_id, status, connected_users, created_at, updated_at)
			VALUES ('ap-1', 'AP Uno', 'AP001', 'pa-arias', 'active', 12, '2026-01-10T12:00:00Z', '2026-01-10T12:00:00Z')`,
		`INSERT INTO access_points (id, name, code, parish_id, status, connected_users, created_at, updated_at)
			VALUES ('ap-2', 'AP Dos', 'AP002', 'pa-arias', 'inactive', 0, '2026-01-10T12:00:00Z', '2026-01-10T12:00:00Z')`,
		`INSERT INTO portal_users (id, full_name, document_id, parish_id, connected_at)
			VALUES ('pu-1', 'Ana Pérez', 'V-11222333', 'pa-arias', '2026-01-10T12:00:00Z')`,
	}
	for _, stmt := range seed {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("seeding: %v", err)
		}
	}

	stats, err := repo.ParishStatsByMunicipality(ctx, "mu-libertador-mer")
	if err != nil {
		t.Fatalf("ParishStatsByMunicipality() error = %v", err)
	}
	if len(stats) != 5 {
		t.Fatalf("len(stats) = %d, want 5", len(stats))
	}

	var arias *ParishStats
	for i := range stats {
		if stats[i].ParishID == "pa-arias" {
			arias = &stats[i]
		}
	}
	if arias == nil {
		t.Fatal("pa-arias missing from stats")
	}
	if arias.AccessPoints != 2 {
		t.Errorf("AccessPoints = %d, want 2", arias.AccessPoints)
	}
	if arias.ActivePoints != 1 {
		t.Errorf("ActivePoints = %d, want 1", arias.ActivePoints)
	}
	if arias.ConnectedUsers != 12 {
		t.Errorf("ConnectedUsers = %d, want 12", arias.ConnectedUsers)
	}
	if arias.PortalUsers != 1 {
		t.Errorf("PortalUsers = %d, want 1", arias.PortalUsers)
	}
}

func TestStateStatsAll(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteRepository(db.DB)
	ctx := context.Background()

	if _, err := db.ExecContext(ctx,
		`INSERT INTO access_points (id, name, code, parish_id, status, connected_users, created_at, updated_at)
			VALUES ('ap-1', 'AP Uno', 'AP001', 'pa-montalban', 'active', 7, '2026-01-10T12:00:00Z', '2026-01-10T12:00:00Z')`,
	); err != nil {
		t.Fatalf("seeding: %v", err)
	}

	stats, err := repo.StateStatsAll(ctx)
	if err != nil {
		t.Fatalf("StateStatsAll() error = %v", err)
	}
	if len(stats) != 24 {
		t.Fatalf("len(stats) = %d, want 24", len(stats))
	}

	var merida *StateStats
	for i := range stats {
		if stats[i].StateID == "st-merida" {
			merida = &stats[i]
		}
	}
	if merida == nil {
		t.Fatal("st-merida missing from stats")
	}
	if merida.Municipalities != 4 {
		t.Errorf("Municipalities = %d, want 4", merida.Municipalities)
	}
	if merida.Parishes != 12 {
		t.Errorf("Parishes = %d, want 12", merida.Parishes)
	}
	if merida.AccessPoints != 1 {
		t.Errorf("AccessPoints = %d, want 1", merida.AccessPoints)
	}
	if merida.ConnectedUsers != 7 {
		t.Errorf("ConnectedUsers = %d, want 7", merida.ConnectedUsers)
	}
}
