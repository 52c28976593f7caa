package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/punchy-be/internal/database"
	"github.com/isdelr/punchy-be/internal/models"
)

// MaxListLimit is both the largest page size and the default one.
const MaxListLimit = 500

// VisitServiceProvider defines the interface for the public visit listing.
type VisitServiceProvider interface {
	RecordVisit(ctx context.Context, username, site string, at time.Time) (models.VisitRecord, error)
	ListAll(ctx context.Context, username string, limit, offset int) (models.VisitListing, error)
}

// VisitService provides read access to site visit records grouped by user.
type VisitService struct {
	db *database.DB
}

// NewVisitService creates a new VisitService.
func NewVisitService(db *database.DB) *VisitService {
	return &VisitService{db: db}
}

// ClampLimit coerces an out of range page size to MaxListLimit.
func ClampLimit(limit int) int {
	if limit < 1 || limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

// ClampOffset coerces a negative offset to zero.
func ClampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

// RecordVisit stores a visit of username to site at the given instant.
func (s *VisitService) RecordVisit(ctx context.Context, username, site string, at time.Time) (models.VisitRecord, error) {
	visit := models.VisitRecord{
		ID:        uuid.New().String(),
		Username:  username,
		Site:      site,
		Timestamp: at.UTC().Truncate(time.Millisecond),
	}

	_, err := s.db.ExecContext(ctx,
		s.db.Rebind(`INSERT INTO visit_records (id, username, site, visited_at) VALUES (?, ?, ?, ?)`),
		visit.ID, visit.Username, visit.Site, visit.Timestamp.UnixMilli())
	if err != nil {
		return models.VisitRecord{}, storageError("record visit", err)
	}
	return visit, nil
}

type visitRow struct {
	Username  string `db:"username"`
	Site      string `db:"site"`
	VisitedAt int64  `db:"visited_at"`
}

// ListAll pages through visits newest first, optionally for a single user, and
// groups the page by username in first-seen order.
func (s *VisitService) ListAll(ctx context.Context, username string, limit, offset int) (models.VisitListing, error) {
	limit = ClampLimit(limit)
	offset = ClampOffset(offset)
	username = strings.TrimSpace(username)

	query := `SELECT username, site, visited_at FROM visit_records`
	args := []interface{}{}
	if username != "" {
		query += ` WHERE username = ?`
		args = append(args, username)
	}
	query += ` ORDER BY visited_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	var rows []visitRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return models.VisitListing{}, storageError("list visits", err)
	}
	return groupVisits(rows), nil
}

func groupVisits(rows []visitRow) models.VisitListing {
	listing := models.VisitListing{Items: []models.VisitGroup{}}
	index := make(map[string]int)

	for _, row := range rows {
		i, ok := index[row.Username]
		if !ok {
			i = len(listing.Items)
			index[row.Username] = i
			listing.Items = append(listing.Items, models.VisitGroup{Username: row.Username, Records: []models.Visit{}})
		}
		listing.Items[i].Records = append(listing.Items[i].Records, models.Visit{
			Site:      row.Site,
			Timestamp: time.UnixMilli(row.VisitedAt).UTC(),
		})
	}
	listing.Count = len(listing.Items)
	return listing
}
