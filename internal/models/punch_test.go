package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPunchRecord_In(t *testing.T) {
	toronto := time.FixedZone("EST", -5*60*60)

	in := time.Date(2024, 1, 1, 14, 0, 0, 0, time.UTC)
	out := in.Add(time.Hour)
	rec := PunchRecord{ID: 1, Username: "alice", ClockIn: in, ClockOut: &out}

	local := rec.In(toronto)
	assert.True(t, local.ClockIn.Equal(in))
	assert.Equal(t, 9, local.ClockIn.Hour())
	assert.Equal(t, 10, local.ClockOut.Hour())
	// original untouched
	assert.Equal(t, time.UTC, rec.ClockOut.Location())
}

func TestPunchListing_InKeepsEmptyRecords(t *testing.T) {
	l := PunchListing{}.In(nil)
	assert.Nil(t, l.OpenRecord)
	assert.NotNil(t, l.Records)
	assert.Empty(t, l.Records)
}

func TestIsSupportedLang(t *testing.T) {
	assert.True(t, IsSupportedLang("EN"))
	assert.True(t, IsSupportedLang("PT"))
	assert.True(t, IsSupportedLang("FR"))
	assert.False(t, IsSupportedLang("en"))
	assert.False(t, IsSupportedLang("DE"))
	assert.False(t, IsSupportedLang(""))
}
