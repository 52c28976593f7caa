package models

import "time"

// PunchRecord is a single work session. ClockOut and DurationMs stay nil while
// the record is open.
type PunchRecord struct {
	ID         int64      `json:"id"`
	Username   string     `json:"username"`
	ClockIn    time.Time  `json:"clock_in"`
	ClockOut   *time.Time `json:"clock_out"`
	DurationMs *int64     `json:"duration_ms"`
}

// IsOpen reports whether the session has not been punched out yet.
func (p PunchRecord) IsOpen() bool {
	return p.ClockOut == nil
}

// In returns a copy with its instants expressed in loc, for presentation.
func (p PunchRecord) In(loc *time.Location) PunchRecord {
	if loc == nil {
		loc = time.UTC
	}
	p.ClockIn = p.ClockIn.In(loc)
	if p.ClockOut != nil {
		out := p.ClockOut.In(loc)
		p.ClockOut = &out
	}
	return p
}

// PunchListing is a user's current open record plus their closed history,
// most recent first.
type PunchListing struct {
	OpenRecord *PunchRecord  `json:"open_record"`
	Records    []PunchRecord `json:"records"`
}

// In converts every record of the listing to loc.
func (l PunchListing) In(loc *time.Location) PunchListing {
	out := PunchListing{Records: make([]PunchRecord, 0, len(l.Records))}
	if l.OpenRecord != nil {
		open := l.OpenRecord.In(loc)
		out.OpenRecord = &open
	}
	for _, r := range l.Records {
		out.Records = append(out.Records, r.In(loc))
	}
	return out
}
