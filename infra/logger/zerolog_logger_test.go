package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLoggerMethods(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	l := NewZerologLogger("dispatch")
	require.NotNil(t, l)
	l.Debugf("tick %d", 1)
	l.Debugw("route resolved", map[string]any{"vehicle": "v-01", "duration_s": 140})
	l.Infof("shift %s", "started")
	l.Warnf("router fallback")
	l.Errorf("sink unavailable")
}

func TestZerologLoggerJSONDefault(t *testing.T) {
	t.Setenv("APP_ENV", "")
	l := NewZerologLogger("incident")
	assert.NotNil(t, l)
	l.Infof("call accepted")
}
