package notify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStyle(t *testing.T) {
	tests := []struct {
		in      string
		want    Style
		wantErr bool
	}{
		{"application", StyleApplication, false},
		{"", StyleApplication, false},
		{"System", StyleSystem, false},
		{" none ", StyleNone, false},
		{"loud", StyleNone, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStyle(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if tt.in != "" {
				again, err := ParseStyle(got.String())
				require.NoError(t, err)
				assert.Equal(t, got, again)
			}
		})
	}
}

func TestRejectedError(t *testing.T) {
	cause := errors.New("bus closed")
	err := Reject(ReasonTransport, cause)

	assert.ErrorIs(t, err, ErrSubmissionRejected)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "transport")
	assert.Contains(t, err.Error(), "bus closed")

	bare := Reject(ReasonRateLimited, nil)
	assert.ErrorIs(t, bare, ErrSubmissionRejected)
	assert.Equal(t, "notification rejected: rate_limited", bare.Error())

	assert.Equal(t, ReasonUnknown, ReasonOf(errors.New("other")))
	assert.Equal(t, ReasonRateLimited, ReasonOf(bare))
}

func TestCounter(t *testing.T) {
	c := NewCounter(0)
	assert.Equal(t, NotificationID(1), c.NextID())
	assert.Equal(t, NotificationID(2), c.NextID())

	wrap := NewCounter(^NotificationID(0))
	assert.Equal(t, ^NotificationID(0), wrap.NextID())
	assert.Equal(t, NotificationID(1), wrap.NextID())
}

func TestRandom(t *testing.T) {
	a, b := NewRandom(42), NewRandom(42)
	for range 100 {
		id := a.NextID()
		assert.NotZero(t, id)
		assert.Equal(t, id, b.NextID())
	}
}

func TestNewIDSource(t *testing.T) {
	src, err := NewIDSource("counter", 0)
	require.NoError(t, err)
	assert.IsType(t, &Counter{}, src)

	src, err = NewIDSource("random", 1)
	require.NoError(t, err)
	assert.IsType(t, &Random{}, src)

	_, err = NewIDSource("sequential", 0)
	assert.Error(t, err)
}
