package assessment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeToPercent(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		scale   Scale
		want    float64
		wantErr error
	}{
		{"rating midpoint", 2.5, ScaleRating5, 50, nil},
		{"rating max", 5, ScaleRating5, 100, nil},
		{"rating min", 1, ScaleRating5, 20, nil},
		{"percent passes through", 35, ScalePercent, 35, nil},
		{"percent edge", 100, ScalePercent, 100, nil},
		{"rating below scale", 0, ScaleRating5, 0, ErrValueOutOfScale},
		{"rating above scale", 6, ScaleRating5, 0, ErrValueOutOfScale},
		{"percent above scale", 130, ScalePercent, 0, ErrValueOutOfScale},
		{"percent negative", -1, ScalePercent, 0, ErrValueOutOfScale},
		{"unknown scale", 3, Scale("stanine"), 0, ErrUnknownScale},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeToPercent(tt.value, tt.scale)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestWindow(t *testing.T) {
	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	w, err := NewWindow(from, to)
	assert.NoError(t, err)

	assert.True(t, w.Contains(from))
	assert.True(t, w.Contains(to.Add(-time.Second)))
	assert.False(t, w.Contains(to), "window is half-open")
	assert.False(t, w.Contains(from.Add(-time.Second)))
	assert.Equal(t, to, w.ReferenceDate())

	_, err = NewWindow(to, from)
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = NewWindow(from, from)
	assert.ErrorIs(t, err, ErrInvalidWindow)
}
