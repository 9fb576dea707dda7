package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	entry, ok := New("prod", "").(*logrus.Entry)
	require.True(t, ok)
	assert.IsType(t, &logrus.JSONFormatter{}, entry.Logger.Formatter)
	assert.Equal(t, logrus.InfoLevel, entry.Logger.Level)
	assert.Equal(t, "prod", entry.Data["env"])

	entry = New("dev", "warn").(*logrus.Entry)
	assert.IsType(t, &logrus.TextFormatter{}, entry.Logger.Formatter)
	assert.Equal(t, logrus.WarnLevel, entry.Logger.Level)

	entry = New("dev", "loud").(*logrus.Entry)
	assert.Equal(t, logrus.DebugLevel, entry.Logger.Level)
}
