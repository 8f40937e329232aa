package auth

import (
	"context"
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

// createTestAdmin inserts an active admin and returns it.
func createTestAdmin(t *testing.T, repo AdminRepository, username string, role Role, stateID, municipalityID *string) *Admin {
	t.Helper()

	hash, err := HashPassword("test-password")
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}

	admin := &Admin{
		Username:       username,
		FullName:       "Test Admin",
		PasswordHash:   hash,
		Role:           role,
		StateID:        stateID,
		MunicipalityID: municipalityID,
		IsActive:       true,
	}
	if err := repo.Create(context.Background(), admin); err != nil {
		t.Fatalf("creating test admin %s: %v", username, err)
	}
	return admin
}

func strPtr(s string) *string {
	return &s
}
