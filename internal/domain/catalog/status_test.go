package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeriveStatus(t *testing.T) {
	ann := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	cls := time.Date(2026, 3, 5, 17, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		now      time.Time
		ann      *time.Time
		cls      *time.Time
		expected WindowStatus
	}{
		{"missing announcement", ann, nil, &cls, WindowStatusUnknown},
		{"missing close", ann, &ann, nil, WindowStatusUnknown},
		{"both missing", ann, nil, nil, WindowStatusUnknown},
		{"before announcement", ann.Add(-time.Second), &ann, &cls, WindowStatusUpcoming},
		{"at announcement", ann, &ann, &cls, WindowStatusOpen},
		{"inside window", ann.Add(48 * time.Hour), &ann, &cls, WindowStatusOpen},
		{"at close", cls, &ann, &cls, WindowStatusOpen},
		{"after close", cls.Add(time.Second), &ann, &cls, WindowStatusClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeriveStatus(tt.now, tt.ann, tt.cls))
		})
	}
}

func TestWindowStatus_IsOpen(t *testing.T) {
	assert.True(t, WindowStatusOpen.IsOpen())
	assert.False(t, WindowStatusUpcoming.IsOpen())
	assert.False(t, WindowStatusClosed.IsOpen())
	assert.False(t, WindowStatusUnknown.IsOpen())
}
