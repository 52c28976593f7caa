package models

import "time"

// VisitRecord is a single site visit by a user.
type VisitRecord struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Site      string    `json:"site"`
	Timestamp time.Time `json:"timestamp"`
}

// Visit is the per-group projection of a VisitRecord.
type Visit struct {
	Site      string    `json:"site"`
	Timestamp time.Time `json:"timestamp"`
}

// VisitGroup holds the visits of one user, in listing order.
type VisitGroup struct {
	Username string  `json:"username"`
	Records  []Visit `json:"records"`
}

// VisitListing is a page of visits grouped by username. Count is the number of groups.
type VisitListing struct {
	Count int          `json:"count"`
	Items []VisitGroup `json:"items"`
}
