package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/isdelr/punchy-be/internal/database"
	"github.com/isdelr/punchy-be/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// MaxOwnRecords caps the closed history returned by ListOwn.
const MaxOwnRecords = 500

// Live feed actions published after a transition.
const (
	ActionPunchIn    = "punch.in"
	ActionPunchOut   = "punch.out"
	ActionPunchStale = "punch.stale"
)

// Publisher receives punch events for a user. Publish must not block.
type Publisher interface {
	Publish(username, action string, payload interface{})
}

// PunchServiceProvider defines the interface for the punch ledger.
type PunchServiceProvider interface {
	PunchIn(ctx context.Context, user models.User, when string, loc *time.Location) (models.PunchRecord, error)
	PunchOut(ctx context.Context, user models.User, when string, loc *time.Location) (models.PunchRecord, error)
	ListOwn(ctx context.Context, user models.User) (models.PunchListing, error)
	ListOpenSince(ctx context.Context, cutoff time.Time) ([]models.PunchRecord, error)
}

// PunchService owns the per-user open/closed session state. The store enforces
// the single open record: a partial unique index guards punch-in and punch-out
// runs inside a write-locked transaction.
type PunchService struct {
	db        *database.DB
	publisher Publisher
}

// NewPunchService creates a new PunchService. publisher may be nil.
func NewPunchService(db *database.DB, publisher Publisher) *PunchService {
	return &PunchService{db: db, publisher: publisher}
}

type punchRow struct {
	ID         int64         `db:"id"`
	Username   string        `db:"username"`
	ClockIn    int64         `db:"clock_in"`
	ClockOut   sql.NullInt64 `db:"clock_out"`
	DurationMs sql.NullInt64 `db:"duration_ms"`
}

func (r punchRow) toModel() models.PunchRecord {
	rec := models.PunchRecord{
		ID:       r.ID,
		Username: r.Username,
		ClockIn:  time.UnixMilli(r.ClockIn).UTC(),
	}
	if r.ClockOut.Valid {
		out := time.UnixMilli(r.ClockOut.Int64).UTC()
		rec.ClockOut = &out
	}
	if r.DurationMs.Valid {
		d := r.DurationMs.Int64
		rec.DurationMs = &d
	}
	return rec
}

const punchColumns = `id, username, clock_in, clock_out, duration_ms`

// PunchIn opens a new session at when. If the user already has an open record
// it returns an *OpenExistsError holding that record and nothing is written.
func (s *PunchService) PunchIn(ctx context.Context, user models.User, when string, loc *time.Location) (models.PunchRecord, error) {
	at, err := ParseInstant(when, loc)
	if err != nil {
		return models.PunchRecord{}, err
	}

	var row punchRow
	err = s.db.GetContext(ctx, &row,
		s.db.Rebind(`INSERT INTO punch_records (username, clock_in) VALUES (?, ?) RETURNING `+punchColumns),
		user.Username, at.UnixMilli())
	if err != nil {
		if !database.IsUniqueViolation(err) {
			return models.PunchRecord{}, storageError("punch in", err)
		}
		open, findErr := s.openRecord(ctx, s.db, user.Username, "")
		if errors.Is(findErr, ErrNoOpenRecord) {
			// closed again between the rejected insert and the read
			return models.PunchRecord{}, ErrOpenExists
		}
		if findErr != nil {
			return models.PunchRecord{}, findErr
		}
		return models.PunchRecord{}, &OpenExistsError{Open: open}
	}

	rec := row.toModel()
	log.Info().Str("username", rec.Username).Int64("record_id", rec.ID).Time("clock_in", rec.ClockIn).Msg("Punched in")
	s.publish(rec.Username, ActionPunchIn, rec)
	return rec, nil
}

// PunchOut closes the user's open record at when, deriving duration_ms. The
// read, the range check and the update commit together or not at all.
func (s *PunchService) PunchOut(ctx context.Context, user models.User, when string, loc *time.Location) (models.PunchRecord, error) {
	at, err := ParseInstant(when, loc)
	if err != nil {
		return models.PunchRecord{}, err
	}
	outMs := at.UnixMilli()

	var closed models.PunchRecord
	err = s.db.WithTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		open, err := s.openRecord(ctx, tx, user.Username, s.db.ForUpdate())
		if err != nil {
			return err
		}

		inMs := open.ClockIn.UnixMilli()
		if outMs < inMs {
			return fmt.Errorf("%w: clock_out %s before clock_in %s", ErrInvalidRange,
				at.Format(time.RFC3339Nano), open.ClockIn.Format(time.RFC3339Nano))
		}
		duration := outMs - inMs

		res, err := tx.ExecContext(ctx,
			s.db.Rebind(`UPDATE punch_records SET clock_out = ?, duration_ms = ? WHERE id = ? AND clock_out IS NULL`),
			outMs, duration, open.ID)
		if err != nil {
			return storageError("punch out", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return storageError("punch out", err)
		}
		if n != 1 {
			return ErrNoOpenRecord
		}

		closed = open
		closed.ClockOut = &at
		closed.DurationMs = &duration
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNoOpenRecord) || errors.Is(err, ErrInvalidRange) || errors.Is(err, ErrStorage) {
			return models.PunchRecord{}, err
		}
		return models.PunchRecord{}, storageError("punch out", err)
	}

	log.Info().Str("username", closed.Username).Int64("record_id", closed.ID).Int64("duration_ms", *closed.DurationMs).Msg("Punched out")
	s.publish(closed.Username, ActionPunchOut, closed)
	return closed, nil
}

// ListOwn returns the user's open record, if any, and up to MaxOwnRecords
// closed records ordered by clock_in descending.
func (s *PunchService) ListOwn(ctx context.Context, user models.User) (models.PunchListing, error) {
	listing := models.PunchListing{Records: []models.PunchRecord{}}

	open, err := s.openRecord(ctx, s.db, user.Username, "")
	switch {
	case err == nil:
		listing.OpenRecord = &open
	case !errors.Is(err, ErrNoOpenRecord):
		return models.PunchListing{}, err
	}

	var rows []punchRow
	err = s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT `+punchColumns+` FROM punch_records
		WHERE username = ? AND clock_out IS NOT NULL
		ORDER BY clock_in DESC, id DESC
		LIMIT ?`), user.Username, MaxOwnRecords)
	if err != nil {
		return models.PunchListing{}, storageError("list records", err)
	}
	for _, r := range rows {
		listing.Records = append(listing.Records, r.toModel())
	}
	return listing, nil
}

// ListOpenSince returns every open record whose clock_in is at or before cutoff,
// oldest first.
func (s *PunchService) ListOpenSince(ctx context.Context, cutoff time.Time) ([]models.PunchRecord, error) {
	var rows []punchRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT `+punchColumns+` FROM punch_records
		WHERE clock_out IS NULL AND clock_in <= ?
		ORDER BY clock_in ASC`), cutoff.UnixMilli())
	if err != nil {
		return nil, storageError("list open records", err)
	}

	records := make([]models.PunchRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.toModel())
	}
	return records, nil
}

// openRecord loads the user's open record through q, appending lock (if any)
// to the SELECT.
func (s *PunchService) openRecord(ctx context.Context, q sqlx.QueryerContext, username, lock string) (models.PunchRecord, error) {
	var row punchRow
	err := sqlx.GetContext(ctx, q, &row, s.db.Rebind(`
		SELECT `+punchColumns+` FROM punch_records
		WHERE username = ? AND clock_out IS NULL
		ORDER BY clock_in DESC
		LIMIT 1`+lock), username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.PunchRecord{}, ErrNoOpenRecord
		}
		return models.PunchRecord{}, storageError("find open record", err)
	}
	return row.toModel(), nil
}

func (s *PunchService) publish(username, action string, rec models.PunchRecord) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(username, action, rec)
}
