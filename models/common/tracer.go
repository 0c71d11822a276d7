package common

import (
	"strings"

	"github.com/op/go-logging"
)

// Tracer lets us write Minio trace output to our logs at debug
// level. Pass it to minio.Client.TraceOn.
type Tracer struct {
	logger *logging.Logger
}

func NewTracer(logger *logging.Logger) *Tracer {
	return &Tracer{logger: logger}
}

func (t *Tracer) Write(p []byte) (n int, err error) {
	if line := strings.TrimSpace(string(p)); line != "" {
		t.logger.Debug(line)
	}
	return len(p), nil
}
