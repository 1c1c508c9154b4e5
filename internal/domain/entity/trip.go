package entity

import "time"

// Trip is a single journey recorded by an inspector. Trips feed a voucher's
// totals at submission time but are not themselves part of the approval
// state machine.
type Trip struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	Date          string    `json:"date"` // YYYY-MM-DD
	FromAddress   string    `json:"from_address"`
	ToAddress     string    `json:"to_address"`
	SiteName      string    `json:"site_name,omitempty"`
	Purpose       string    `json:"purpose,omitempty"`
	Miles         float64   `json:"miles"`
	RouteData     string    `json:"route_data,omitempty"`
	DepartureTime string    `json:"departure_time,omitempty"`
	ReturnTime    string    `json:"return_time,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
