package geo

import "time"

// State is the top level of the geographic hierarchy.
type State struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ISOCode   string    `json:"iso_code"`
	CreatedAt time.Time `json:"created_at"`
}

// Municipality is the middle level, always belonging to a state.
type Municipality struct {
	ID        string    `json:"id"`
	StateID   string    `json:"state_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Parish is the leaf level, always belonging to a municipality.
// Scoped resources reference parishes.
type Parish struct {
	ID             string    `json:"id"`
	MunicipalityID string    `json:"municipality_id"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"created_at"`
}

// Ancestry identifies the chain above a parish.
type Ancestry struct {
	ParishID       string
	MunicipalityID string
	StateID        string
}

// ParishStats is a per-parish access point rollup.
type ParishStats struct {
	ParishID       string `json:"parish_id"`
	ParishName     string `json:"parish_name"`
	AccessPoints   int    `json:"access_points"`
	ActivePoints   int    `json:"active_access_points"`
	ConnectedUsers int    `json:"connected_users"`
	PortalUsers    int    `json:"portal_users"`
}

// StateStats is a per-state access point rollup.
type StateStats struct {
	StateID        string `json:"state_id"`
	StateName      string `json:"state_name"`
	Municipalities int    `json:"municipalities"`
	Parishes       int    `json:"parishes"`
	AccessPoints   int    `json:"access_points"`
	ConnectedUsers int    `json:"connected_users"`
}
