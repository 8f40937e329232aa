package portal

import (
	"context"
	"errors"
	"testing"

	"github.com/JeanClaudeMorales/amarillo/internal/auth"
)

func TestPortalUserList_ScopeContainment(t *testing.T) {
	db := testDB(t)
	repo := NewPortalUserRepository(db.DB, geoRepo(db))
	ctx := context.Background()

	seedPortalUser(t, db, "pu-arias", "V-100", strPtr("pa-arias"))
	seedPortalUser(t, db, "pu-montalban", "V-200", strPtr("pa-montalban"))
	seedPortalUser(t, db, "pu-lagunillas", "V-300", strPtr("pa-lagunillas"))
	seedPortalUser(t, db, "pu-floating", "V-400", nil)

	tests := []struct {
		name      string
		scope     auth.ScopeFilter
		wantTotal int
	}{
		{"unrestricted includes null parish", unrestricted(), 4},
		{"state excludes null parish", meridaScope(), 3},
		{"municipal sees own municipality", libertadorScope(), 1},
		{"sibling municipality isolated", campoEliasScope(), 1},
		{"empty sees nothing", auth.EmptyScope(), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := repo.List(ctx, tt.scope, UserListOptions{})
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if page.Total != tt.wantTotal {
				t.Errorf("Total = %d, want %d", page.Total, tt.wantTotal)
			}
			if len(page.Users) != tt.wantTotal {
				t.Errorf("len(Users) = %d, want %d", len(page.Users), tt.wantTotal)
			}
		})
	}
}

func TestPortalUserList_SearchAndPaginationStayInScope(t *testing.T) {
	db := testDB(t)
	repo := NewPortalUserRepository(db.DB, geoRepo(db))
	ctx := context.Background()

	// Same name in two municipalities.
	seedPortalUser(t, db, "pu-in", "V-555", strPtr("pa-arias"))
	seedPortalUser(t, db, "pu-out", "V-556", strPtr("pa-montalban"))

	page, err := repo.List(ctx, libertadorScope(), UserListOptions{Search: "V-55"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if page.Total != 1 {
		t.Errorf("Total = %d, want 1 (search must not cross scope)", page.Total)
	}
	if len(page.Users) == 1 && page.Users[0].ID != "pu-in" {
		t.Errorf("got user %s, want pu-in", page.Users[0].ID)
	}

	// Pagination keeps the scoped total.
	paged, err := repo.List(ctx, meridaScope(), UserListOptions{Limit: 1, Offset: 0})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if paged.Total != 2 {
		t.Errorf("paged Total = %d, want 2", paged.Total)
	}
	if len(paged.Users) != 1 {
		t.Errorf("len(page) = %d, want 1", len(paged.Users))
	}

	// Out-of-scope parish filter narrows to nothing, never widens.
	filtered, err := repo.List(ctx, libertadorScope(), UserListOptions{ParishID: "pa-montalban"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if filtered.Total != 0 {
		t.Errorf("out-of-scope parish filter Total = %d, want 0", filtered.Total)
	}
}

func TestPortalUserGet_OutOfScopeIsNotFound(t *testing.T) {
	db := testDB(t)
	repo := NewPortalUserRepository(db.DB, geoRepo(db))
	ctx := context.Background()

	seedPortalUser(t, db, "pu-montalban", "V-200", strPtr("pa-montalban"))

	if _, err := repo.Get(ctx, campoEliasScope(), "pu-montalban"); err != nil {
		t.Fatalf("in-scope Get() error = %v", err)
	}
	if _, err := repo.Get(ctx, libertadorScope(), "pu-montalban"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("out-of-scope Get error = %v, want ErrUserNotFound", err)
	}
}

func TestRegister_OpenEnrollment(t *testing.T) {
	db := testDB(t)
	repo := NewPortalUserRepository(db.DB, geoRepo(db))
	apRepo := NewAccessPointRepository(db.DB, geoRepo(db))
	ctx := context.Background()

	seedAccessPoint(t, db, "ap-arias", "AP001", strPtr("pa-arias"))

	user := &PortalUser{
		FullName:      "Carlos Rondón",
		DocumentID:    "V-12345678",
		WhatsApp:      "+58-412-5550123",
		AccessPointID: strPtr("ap-arias"),
	}
	if err := repo.Register(ctx, user); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	got, err := repo.Get(ctx, unrestricted(), user.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ParishID == nil || *got.ParishID != "pa-arias" {
		t.Errorf("ParishID = %v, want inherited pa-arias", got.ParishID)
	}
	if !got.IsActive {
		t.Error("registered user not active")
	}

	ap, err := apRepo.Get(ctx, unrestricted(), "ap-arias")
	if err != nil {
		t.Fatalf("Get(ap) error = %v", err)
	}
	if ap.ConnectedUsers != 1 {
		t.Errorf("ConnectedUsers = %d, want 1 after enrollment", ap.ConnectedUsers)
	}
}

func TestRegister_DuplicateDocument(t *testing.T) {
	db := testDB(t)
	repo := NewPortalUserRepository(db.DB, geoRepo(db))
	ctx := context.Background()

	first := &PortalUser{FullName: "Ana", DocumentID: "V-999"}
	if err := repo.Register(ctx, first); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	dup := &PortalUser{FullName: "Ana Again", DocumentID: "V-999"}
	if err := repo.Register(ctx, dup); !errors.Is(err, ErrDuplicateDocument) {
		t.Errorf("error = %v, want ErrDuplicateDocument", err)
	}
}

func TestRegister_UnknownAccessPoint(t *testing.T) {
	db := testDB(t)
	repo := NewPortalUserRepository(db.DB, geoRepo(db))

	user := &PortalUser{FullName: "Lost", DocumentID: "V-777", AccessPointID: strPtr("ap-missing")}
	if err := repo.Register(context.Background(), user); !errors.Is(err, ErrAccessPointNotFound) {
		t.Errorf("error = %v, want ErrAccessPointNotFound", err)
	}
}

func TestPortalUserCreate_ScopeViolation(t *testing.T) {
	db := testDB(t)
	repo := NewPortalUserRepository(db.DB, geoRepo(db))
	ctx := context.Background()

	user := &PortalUser{FullName: "Out", DocumentID: "V-888", ParishID: strPtr("pa-montalban"), IsActive: true}
	if err := repo.Create(ctx, libertadorScope(), user); !errors.Is(err, auth.ErrScopeViolation) {
		t.Fatalf("error = %v, want ErrScopeViolation", err)
	}

	var count int
	if err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM portal_users WHERE document_id = 'V-888'").Scan(&count); err != nil {
		t.Fatalf("counting: %v", err)
	}
	if count != 0 {
		t.Error("out-of-scope create stored a row")
	}

	if err := repo.Create(ctx, campoEliasScope(), user); err != nil {
		t.Errorf("in-scope Create() error = %v", err)
	}
}

func TestTouchLastSeen(t *testing.T) {
	db := testDB(t)
	repo := NewPortalUserRepository(db.DB, geoRepo(db))
	ctx := context.Background()

	seedPortalUser(t, db, "pu-1", "V-1", strPtr("pa-arias"))

	if err := repo.TouchLastSeen(ctx, "V-1"); err != nil {
		t.Fatalf("TouchLastSeen() error = %v", err)
	}
	got, err := repo.Get(ctx, unrestricted(), "pu-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.LastSeen == nil {
		t.Error("LastSeen not stamped")
	}

	if err := repo.TouchLastSeen(ctx, "V-none"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("error = %v, want ErrUserNotFound", err)
	}
}
