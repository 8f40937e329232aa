package auth

import (
	"context"
	"errors"
	"testing"
)

func TestAdminRepository_CreateAndGet(t *testing.T) {
	db := testDB(t)
	repo := NewAdminRepository(db.DB)
	ctx := context.Background()

	admin := createTestAdmin(t, repo, "maria.gomez", RoleState, strPtr("st-merida"), nil)

	got, err := repo.GetByID(ctx, admin.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Username != "maria.gomez" {
		t.Errorf("Username = %q, want %q", got.Username, "maria.gomez")
	}
	if got.Role != RoleState {
		t.Errorf("Role = %q, want %q", got.Role, RoleState)
	}
	if got.StateID == nil || *got.StateID != "st-merida" {
		t.Errorf("StateID = %v, want st-merida", got.StateID)
	}
	if got.MunicipalityID != nil {
		t.Errorf("MunicipalityID = %v, want nil", got.MunicipalityID)
	}

	byName, err := repo.GetByUsername(ctx, "maria.gomez")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}
	if byName.ID != admin.ID {
		t.Errorf("GetByUsername ID = %q, want %q", byName.ID, admin.ID)
	}
}

func TestAdminRepository_DuplicateUsername(t *testing.T) {
	db := testDB(t)
	repo := NewAdminRepository(db.DB)

	createTestAdmin(t, repo, "dup", RoleNational, nil, nil)

	err := repo.Create(context.Background(), &Admin{
		Username:     "dup",
		PasswordHash: "x",
		Role:         RoleNational,
		IsActive:     true,
	})
	if !errors.Is(err, ErrUsernameExists) {
		t.Errorf("error = %v, want ErrUsernameExists", err)
	}
}

func TestAdminRepository_GetNotFound(t *testing.T) {
	db := testDB(t)
	repo := NewAdminRepository(db.DB)

	_, err := repo.GetByID(context.Background(), "adm-nope")
	if !errors.Is(err, ErrAdminNotFound) {
		t.Errorf("error = %v, want ErrAdminNotFound", err)
	}
}

func TestAdminRepository_Update(t *testing.T) {
	db := testDB(t)
	repo := NewAdminRepository(db.DB)
	ctx := context.Background()

	admin := createTestAdmin(t, repo, "to-update", RoleMunicipal, nil, strPtr("mu-libertador-mer"))

	admin.FullName = "Updated Name"
	admin.IsActive = false
	if err := repo.Update(ctx, admin); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := repo.GetByID(ctx, admin.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.FullName != "Updated Name" {
		t.Errorf("FullName = %q, want %q", got.FullName, "Updated Name")
	}
	if got.IsActive {
		t.Error("IsActive = true after deactivation")
	}

	err = repo.Update(ctx, &Admin{ID: "adm-nope", Role: RoleNational})
	if !errors.Is(err, ErrAdminNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrAdminNotFound", err)
	}
}

func TestAdminRepository_UpdatePassword(t *testing.T) {
	db := testDB(t)
	repo := NewAdminRepository(db.DB)
	ctx := context.Background()

	admin := createTestAdmin(t, repo, "pw-change", RoleNational, nil, nil)

	newHash, err := HashPassword("new-password")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if err := repo.UpdatePassword(ctx, admin.ID, newHash); err != nil {
		t.Fatalf("UpdatePassword() error = %v", err)
	}

	got, err := repo.GetByID(ctx, admin.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	ok, err := VerifyPassword("new-password", got.PasswordHash)
	if err != nil || !ok {
		t.Errorf("new password does not verify (ok=%v, err=%v)", ok, err)
	}
}

func TestAdminRepository_Delete(t *testing.T) {
	db := testDB(t)
	repo := NewAdminRepository(db.DB)
	ctx := context.Background()

	admin := createTestAdmin(t, repo, "deletable", RoleMunicipal, nil, strPtr("mu-sucre-mer"))

	if err := repo.Delete(ctx, admin.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByID(ctx, admin.ID); !errors.Is(err, ErrAdminNotFound) {
		t.Errorf("admin still present after delete: %v", err)
	}

	if err := repo.Delete(ctx, "adm-nope"); !errors.Is(err, ErrAdminNotFound) {
		t.Errorf("Delete(missing) error = %v, want ErrAdminNotFound", err)
	}
}

func TestAdminRepository_DeleteSuperadminRefused(t *testing.T) {
	db := testDB(t)
	repo := NewAdminRepository(db.DB)
	ctx := context.Background()

	super := createTestAdmin(t, repo, "root", RoleSuperadmin, nil, nil)

	err := repo.Delete(ctx, super.ID)
	if !errors.Is(err, ErrSuperadminImmutable) {
		t.Fatalf("Delete(superadmin) error = %v, want ErrSuperadminImmutable", err)
	}

	if _, err := repo.GetByID(ctx, super.ID); err != nil {
		t.Errorf("superadmin gone after refused delete: %v", err)
	}
}

func TestAdminRepository_ListAndCount(t *testing.T) {
	db := testDB(t)
	repo := NewAdminRepository(db.DB)
	ctx := context.Background()

	empty, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("len(List()) = %d on empty table", len(empty))
	}

	createTestAdmin(t, repo, "one", RoleNational, nil, nil)
	createTestAdmin(t, repo, "two", RoleState, strPtr("st-merida"), nil)

	admins, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(admins) != 2 {
		t.Errorf("len(admins) = %d, want 2", len(admins))
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 2 {
		t.Errorf("Count() = %d, want 2", count)
	}
}
