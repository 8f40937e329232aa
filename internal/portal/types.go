package portal

import "time"

// AccessPointStatus is the operational state of an access point.
type AccessPointStatus string

const (
	StatusActive      AccessPointStatus = "active"
	StatusInactive    AccessPointStatus = "inactive"
	StatusMaintenance AccessPointStatus = "maintenance"
)

// IsValidStatus returns true for a recognised access point status.
func IsValidStatus(s AccessPointStatus) bool {
	switch s {
	case StatusActive, StatusInactive, StatusMaintenance:
		return true
	}
	return false
}

// AccessPoint is a deployed WiFi access point. ParishID is nil while
// the hardware is registered but not yet assigned to a location; such
// rows are visible only to unrestricted scopes.
type AccessPoint struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Code           string            `json:"code"`
	ParishID       *string           `json:"parish_id,omitempty"`
	IPAddress      string            `json:"ip_address,omitempty"`
	MACAddress     string            `json:"mac_address,omitempty"`
	Status         AccessPointStatus `json:"status"`
	SignalDBM      *int              `json:"signal_dbm,omitempty"`
	ConnectedUsers int               `json:"connected_users"`
	BandwidthMbps  *float64          `json:"bandwidth_mbps,omitempty"`
	LastSeenAt     *time.Time        `json:"last_seen_at,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// PortalUser is a visitor registered through the captive portal.
type PortalUser struct {
	ID                 string     `json:"id"`
	FullName           string     `json:"full_name"`
	DocumentID         string     `json:"document_id"`
	WhatsApp           string     `json:"whatsapp,omitempty"`
	BirthDate          string     `json:"birth_date,omitempty"`
	Address            string     `json:"address,omitempty"`
	ParishID           *string    `json:"parish_id,omitempty"`
	AccessPointID      *string    `json:"access_point_id,omitempty"`
	SecurityQuestionID *string    `json:"security_question_id,omitempty"`
	SecurityAnswer     string     `json:"-"` // never serialised
	ConnectedAt        time.Time  `json:"connected_at"`
	LastSeen           *time.Time `json:"last_seen,omitempty"`
	IsActive           bool       `json:"is_active"`
}

// QuestionKind classifies a survey/security question.
type QuestionKind string

const (
	KindOpen           QuestionKind = "open"
	KindMath           QuestionKind = "math"
	KindMultipleChoice QuestionKind = "multiple_choice"
)

// IsValidKind returns true for a recognised question kind.
func IsValidKind(k QuestionKind) bool {
	switch k {
	case KindOpen, KindMath, KindMultipleChoice:
		return true
	}
	return false
}

// Question is shown on the portal during enrollment. A nil StateID
// marks a national question visible in every state.
type Question struct {
	ID            string       `json:"id"`
	Text          string       `json:"text"`
	Kind          QuestionKind `json:"kind"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"-"` // never serialised
	StateID       *string      `json:"state_id,omitempty"`
	IsActive      bool         `json:"is_active"`
	CreatedAt     time.Time    `json:"created_at"`
}

// ConfigEntry is one key of the portal configuration.
type ConfigEntry struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserListOptions are the caller-supplied filters for user listings.
// They can only narrow the scoped set, never widen it.
type UserListOptions struct {
	// Search matches against full name and document id (substring).
	Search string

	// ParishID restricts to a single parish inside the scope.
	ParishID string

	Limit  int
	Offset int
}

// UserPage is one page of a scoped user listing. Total counts the
// whole scoped result set, not just this page.
type UserPage struct {
	Users  []PortalUser `json:"users"`
	Total  int          `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

// DashboardStats are scoped aggregate counters for the dashboard.
type DashboardStats struct {
	TotalUsers         int `json:"total_users"`
	ActiveUsers        int `json:"active_users"`
	TotalAccessPoints  int `json:"total_access_points"`
	ActiveAccessPoints int `json:"active_access_points"`
	ConnectedUsers     int `json:"connected_users"`
}

// ParishUserCount is one row of the per-parish dashboard ranking.
type ParishUserCount struct {
	ParishID   string `json:"parish_id"`
	ParishName string `json:"parish_name"`
	Users      int    `json:"users"`
}
