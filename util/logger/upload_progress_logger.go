package logger

import (
	"github.com/op/go-logging"
)

const _10MB = int64(10485760)
const _100MB = int64(104857600)

// UploadProgressLogger logs the progress of a minio PutObject or
// FPutObject call. Minio reads from PutObjectOptions.Progress once for
// every chunk it sends, passing a slice as long as the chunk.
type UploadProgressLogger struct {
	logger         *logging.Logger
	prefix         string
	fileSize       int64
	totalBytes     int64
	chunkNumber    int
	lastPctPrinted float64
}

// NewUploadProgressLogger creates a new UploadProgressLogger.
func NewUploadProgressLogger(logger *logging.Logger, prefix string, fileSize int64) *UploadProgressLogger {
	return &UploadProgressLogger{
		logger:      logger,
		prefix:      prefix,
		fileSize:    fileSize,
		chunkNumber: 1,
	}
}

// Read satisfies io.Reader. It never touches p.
func (u *UploadProgressLogger) Read(p []byte) (n int, err error) {
	u.totalBytes += int64(len(p))
	pctComplete := u.PercentComplete()
	if u.shouldPrint(pctComplete) {
		u.logger.Infof("%s : chunk %d, %d of %d bytes, %3.2f%% complete",
			u.prefix, u.chunkNumber, u.totalBytes, u.fileSize, pctComplete)
		u.lastPctPrinted = pctComplete
	}
	u.chunkNumber++
	return len(p), nil
}

// PercentComplete returns the share of fileSize read so far.
func (u *UploadProgressLogger) PercentComplete() float64 {
	if u.fileSize <= 0 {
		return 100
	}
	return float64(u.totalBytes) / float64(u.fileSize) * 100
}

// BytesRead returns the number of bytes reported so far.
func (u *UploadProgressLogger) BytesRead() int64 {
	return u.totalBytes
}

// shouldPrint keeps the log quiet for small files. Large files get a
// line every 10 or 25 percent, and every file gets a line at 100%.
func (u *UploadProgressLogger) shouldPrint(pctComplete float64) bool {
	if pctComplete >= 100 && u.lastPctPrinted < 100 {
		return true
	}
	diff := pctComplete - u.lastPctPrinted
	if u.fileSize > _100MB {
		return diff >= 10.0
	}
	if u.fileSize > _10MB {
		return diff >= 25.0
	}
	return false
}
