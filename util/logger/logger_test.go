package logger_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/op/go-logging"
	"github.com/reelvault/asset-services/util/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogger(t *testing.T) {
	dir := t.TempDir()
	log, filename := logger.InitLogger(dir, logging.INFO)
	require.NotNil(t, log)
	assert.Equal(t, dir, filepath.Dir(filename))
	assert.True(t, strings.HasSuffix(filename, ".log"))

	log.Info("asset 17 committed")
	data, err := os.ReadFile(filename)
	require.Nil(t, err)
	assert.Contains(t, string(data), "[INFO] asset 17 committed")
}

func TestInitLoggerStderr(t *testing.T) {
	log, filename := logger.InitLogger("", logging.INFO)
	require.NotNil(t, log)
	assert.Equal(t, "", filename)
}

func TestNewLoggerLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logger.NewLogger("level-test", buf, logging.WARNING)
	log.Info("hidden")
	log.Warning("visible")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "[WARNING] visible")
}

func TestParseLevel(t *testing.T) {
	level, err := logger.ParseLevel("debug")
	require.Nil(t, err)
	assert.Equal(t, logging.DEBUG, level)

	level, err = logger.ParseLevel("")
	require.Nil(t, err)
	assert.Equal(t, logging.INFO, level)

	_, err = logger.ParseLevel("LOUD")
	assert.NotNil(t, err)
}

func TestUploadProgressLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logger.NewLogger("progress-test", buf, logging.INFO)
	progress := logger.NewUploadProgressLogger(log, "assets/1/a.mp4", 200)

	n, err := progress.Read(make([]byte, 100))
	require.Nil(t, err)
	assert.Equal(t, 100, n)
	assert.InDelta(t, 50.0, progress.PercentComplete(), 0.001)
	assert.NotContains(t, buf.String(), "complete")

	progress.Read(make([]byte, 100))
	assert.EqualValues(t, 200, progress.BytesRead())
	assert.Contains(t, buf.String(), "100.00% complete")
}
