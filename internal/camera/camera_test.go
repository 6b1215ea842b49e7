package camera

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/guardiavista/guardia-go/internal/conf"
	"github.com/guardiavista/guardia-go/internal/detection"
)

func TestNewLoop_IntervalFallback(t *testing.T) {
	loop := NewLoop(conf.RealtimeSettings{IntervalSeconds: 0}, 0.5, nil)
	assert.Equal(t, 2*time.Second, loop.interval)

	loop = NewLoop(conf.RealtimeSettings{IntervalSeconds: 0.5}, 0.5, nil)
	assert.Equal(t, 500*time.Millisecond, loop.interval)
}

func TestHasCritical(t *testing.T) {
	assert.False(t, hasCritical(nil))
	assert.False(t, hasCritical([]detection.Detection{{Type: detection.TypeVehicle}}))
	assert.True(t, hasCritical([]detection.Detection{
		{Type: detection.TypeVehicle},
		{Type: detection.TypeFire},
	}))
}

func TestFrameRef(t *testing.T) {
	loop := NewLoop(conf.RealtimeSettings{SavePath: "/var/frames", IntervalSeconds: 1}, 0.5, nil)
	ref := loop.frameRef()
	assert.True(t, strings.HasPrefix(ref, "/var/frames/frame_"))
	assert.True(t, strings.HasSuffix(ref, ".jpg"))

	loop = NewLoop(conf.RealtimeSettings{IntervalSeconds: 1}, 0.5, nil)
	assert.False(t, strings.Contains(loop.frameRef(), "/"))
}
