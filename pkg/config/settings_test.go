package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettings_Defaults(t *testing.T) {
	s, err := LoadSettings()

	require.NoError(t, err)
	assert.Equal(t, Settings{
		DataDir:               "/var/lib/deployadmin",
		LogLevel:              "info",
		StopUnaffectedBundles: true,
		SessionTimeout:        10 * time.Second,
	}, s)
}

func TestLoadSettings_FromEnvironment(t *testing.T) {
	t.Setenv("DEPLOYADMIN_DATA_DIR", "/srv/deploy")
	t.Setenv("DEPLOYADMIN_LOG_LEVEL", "debug")
	t.Setenv("DEPLOYADMIN_STOP_UNAFFECTED_BUNDLE", "false")
	t.Setenv("DEPLOYADMIN_SESSION_TIMEOUT", "250ms")

	s, err := LoadSettings()

	require.NoError(t, err)
	assert.Equal(t, "/srv/deploy", s.DataDir)
	assert.Equal(t, "debug", s.LogLevel)
	assert.False(t, s.StopUnaffectedBundles)
	assert.Equal(t, 250*time.Millisecond, s.SessionTimeout)
}

func TestLoadSettings_InvalidValue(t *testing.T) {
	t.Setenv("DEPLOYADMIN_SESSION_TIMEOUT", "soon")

	_, err := LoadSettings()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env")
}
