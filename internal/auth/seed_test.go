package auth

import (
	"context"
	"log/slog"
	"testing"
)

func TestSeedSuperadmin_FirstBoot(t *testing.T) {
	db := testDB(t)
	repo := NewAdminRepository(db.DB)
	ctx := context.Background()

	password, err := SeedSuperadmin(ctx, repo, slog.Default())
	if err != nil {
		t.Fatalf("SeedSuperadmin() error = %v", err)
	}
	if password == "" {
		t.Fatal("no password generated on first boot")
	}

	admin, err := repo.GetByUsername(ctx, "superadmin")
	if err != nil {
		t.Fatalf("seeded admin missing: %v", err)
	}
	if admin.Role != RoleSuperadmin {
		t.Errorf("Role = %q, want superadmin", admin.Role)
	}
	if !admin.IsActive {
		t.Error("seeded admin is inactive")
	}

	ok, err := VerifyPassword(password, admin.PasswordHash)
	if err != nil || !ok {
		t.Errorf("generated password does not verify (ok=%v, err=%v)", ok, err)
	}
}

func TestSeedSuperadmin_SkipsWhenAdminsExist(t *testing.T) {
	db := testDB(t)
	repo := NewAdminRepository(db.DB)
	ctx := context.Background()

	createTestAdmin(t, repo, "existing", RoleNational, nil, nil)

	password, err := SeedSuperadmin(ctx, repo, slog.Default())
	if err != nil {
		t.Fatalf("SeedSuperadmin() error = %v", err)
	}
	if password != "" {
		t.Error("seeding ran despite existing admins")
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want 1", count)
	}
}
