package logger

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/op/go-logging"
)

var format = logging.MustStringFormatter("[%{level}] %{message}")

/*
InitLogger creates and returns a logger suitable for logging
human-readable messages. Also returns the path to the log file.
If logDir is empty, messages go to stderr and the returned path
is empty.
*/
func InitLogger(logDir string, logLevel logging.Level) (*logging.Logger, string) {
	processName := path.Base(os.Args[0])
	var writer io.Writer = os.Stderr
	filename := ""
	if logDir != "" {
		filename = filepath.Join(logDir, fmt.Sprintf("%s.log", processName))
		file, err := os.OpenFile(filename, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Cannot open log file '%s': %v\n", filename, err)
			os.Exit(1)
		}
		writer = file
	}
	return NewLogger(processName, writer, logLevel), filename
}

// NewLogger returns a logger named module that writes to writer.
func NewLogger(module string, writer io.Writer, logLevel logging.Level) *logging.Logger {
	log := logging.MustGetLogger(module)
	backend := logging.NewLogBackend(writer, "", stdlog.LstdFlags|stdlog.LUTC)
	formatted := logging.NewBackendFormatter(backend, format)
	leveled := logging.AddModuleLevel(formatted)
	leveled.SetLevel(logLevel, module)
	log.SetBackend(leveled)
	return log
}

// ParseLevel converts a level name like "INFO" or "warning" to a
// logging.Level. Unknown names return an error.
func ParseLevel(name string) (logging.Level, error) {
	if strings.TrimSpace(name) == "" {
		return logging.INFO, nil
	}
	return logging.LogLevel(strings.ToUpper(strings.TrimSpace(name)))
}
