package portal

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/JeanClaudeMorales/amarillo/internal/auth"
	"github.com/JeanClaudeMorales/amarillo/internal/geo"
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

func geoRepo(db *database.DB) geo.Repository {
	return geo.NewSQLiteRepository(db.DB)
}

// Scope fixtures over the seeded Mérida geography.

func unrestricted() auth.ScopeFilter {
	return auth.UnrestrictedScope()
}

func meridaScope() auth.ScopeFilter {
	id := "st-merida"
	return auth.ResolveScope(&auth.Admin{Role: auth.RoleState, StateID: &id})
}

func libertadorScope() auth.ScopeFilter {
	id := "mu-libertador-mer"
	return auth.ResolveScope(&auth.Admin{Role: auth.RoleMunicipal, MunicipalityID: &id})
}

func campoEliasScope() auth.ScopeFilter {
	id := "mu-campo-elias"
	return auth.ResolveScope(&auth.Admin{Role: auth.RoleMunicipal, MunicipalityID: &id})
}

func strPtr(s string) *string {
	return &s
}

// seedAccessPoint inserts an access point directly, bypassing scope checks.
func seedAccessPoint(t *testing.T, db *database.DB, id, code string, parishID *string) {
	t.Helper()

	var parish any
	if parishID != nil {
		parish = *parishID
	}
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO access_points (id, name, code, parish_id, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 'active', '2026-01-10T12:00:00Z', '2026-01-10T12:00:00Z')`,
		id, "AP "+code, code, parish,
	)
	if err != nil {
		t.Fatalf("seeding access point %s: %v", id, err)
	}
}

// seedPortalUser inserts a portal user directly, bypassing scope checks.
func seedPortalUser(t *testing.T, db *database.DB, id, document string, parishID *string) {
	t.Helper()

	var parish any
	if parishID != nil {
		parish = *parishID
	}
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO portal_users (id, full_name, document_id, parish_id, connected_at, is_active)
		 VALUES (?, ?, ?, ?, '2026-01-10T12:00:00Z', 1)`,
		id, "User "+document, document, parish,
	)
	if err != nil {
		t.Fatalf("seeding portal user %s: %v", id, err)
	}
}
