package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDailySchedule_Next(t *testing.T) {
	schedule := NewDailySchedule(2, 30)

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "before the slot fires today",
			now:  time.Date(2026, time.March, 2, 1, 0, 0, 0, time.UTC),
			want: time.Date(2026, time.March, 2, 2, 30, 0, 0, time.UTC),
		},
		{
			name: "after the slot fires tomorrow",
			now:  time.Date(2026, time.March, 2, 3, 0, 0, 0, time.UTC),
			want: time.Date(2026, time.March, 3, 2, 30, 0, 0, time.UTC),
		},
		{
			name: "exactly on the slot fires tomorrow",
			now:  time.Date(2026, time.March, 2, 2, 30, 0, 0, time.UTC),
			want: time.Date(2026, time.March, 3, 2, 30, 0, 0, time.UTC),
		},
		{
			name: "month boundary",
			now:  time.Date(2026, time.February, 28, 23, 0, 0, 0, time.UTC),
			want: time.Date(2026, time.March, 1, 2, 30, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, schedule.Next(tt.now))
		})
	}
}

func TestDailySchedule_String(t *testing.T) {
	assert.Equal(t, "@daily 02:00 UTC", NewDailySchedule(2, 0).String())
}

func TestIntervalSchedule_Next(t *testing.T) {
	schedule := NewIntervalSchedule(10 * time.Minute)
	now := time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, now.Add(10*time.Minute), schedule.Next(now))
}
