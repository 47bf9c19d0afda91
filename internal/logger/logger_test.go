package logger

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

func TestNew_WithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.log")

	l, err := New("debug", path)
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, l.GetLevel())
	assert.FileExists(t, path)
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	l, err := New("loud", "")
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, l.GetLevel())
}

func TestGet_NopWhenUninitialised(t *testing.T) {
	prev := global.Swap(nil)
	defer global.Store(prev)

	assert.NotPanics(t, func() {
		Get().Info().Msg("dropped")
	})
	assert.Equal(t, zerolog.Disabled, Get().GetLevel())
}

func TestInit_SetsGlobal(t *testing.T) {
	prev := global.Load()
	defer global.Store(prev)

	require.NoError(t, Init("warn", ""))
	assert.Equal(t, zerolog.WarnLevel, Get().GetLevel())
}

func TestForMessage(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, zerolog.InfoLevel).Component("runner").ForMessage(-1001, 42)

	l.Info().Msg("stored")
	assert.Contains(t, buf.String(), `"chat_id":-1001`)
	assert.Contains(t, buf.String(), `"message_id":42`)
	assert.Contains(t, buf.String(), `"component":"runner"`)
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, zerolog.InfoLevel).Component("collector")

	l.Info().Msg("hello")
	assert.Contains(t, buf.String(), `"component":"collector"`)
}

func TestGORMAdapter_Trace(t *testing.T) {
	var buf bytes.Buffer
	g := NewWriter(&buf, zerolog.DebugLevel).GORM()

	g.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT 1", 0
	}, errors.New("boom"))
	assert.Contains(t, buf.String(), "query failed")

	buf.Reset()
	g.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT 1", 1
	}, nil)
	assert.Empty(t, buf.String(), "fast queries are not logged at warn level")

	buf.Reset()
	g.LogMode(gormlogger.Info).Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT 2", 1
	}, nil)
	assert.Contains(t, buf.String(), "SELECT 2")
}
