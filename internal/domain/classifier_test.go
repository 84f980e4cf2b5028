package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	hourAgo := now.Add(-time.Hour)
	twoHoursAgo := now.Add(-2 * time.Hour)
	inAnHour := now.Add(time.Hour)

	tests := []struct {
		name    string
		inTime  time.Time
		outTime *time.Time
		want    Phase
	}{
		{"future in-time is upcoming", inAnHour, nil, PhaseUpcoming},
		{"started, no out-time is ongoing", hourAgo, nil, PhaseOngoing},
		{"elapsed out-time is past", twoHoursAgo, &hourAgo, PhasePast},
		{"in-time equal to now is ongoing", now, nil, PhaseOngoing},
		{"out-time equal to now is still ongoing", twoHoursAgo, &now, PhaseOngoing},
		{"future out-time is ongoing", hourAgo, &inAnHour, PhaseOngoing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(now, tt.inTime, tt.outTime))
		})
	}
}

func TestParsePhase(t *testing.T) {
	for _, valid := range []string{"upcoming", "ongoing", "past"} {
		p, ok := ParsePhase(valid)
		assert.True(t, ok)
		assert.Equal(t, Phase(valid), p)
	}

	_, ok := ParsePhase("finished")
	assert.False(t, ok)
}

func TestParkingLotAvailability(t *testing.T) {
	lot := &ParkingLot{TotalSlot: 5, BookedSlot: 4}
	assert.Equal(t, 1, lot.Available())
	assert.True(t, lot.CanBook())

	lot.BookedSlot = 5
	assert.Equal(t, 0, lot.Available())
	assert.False(t, lot.CanBook())
}
