package media

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/reelvault/asset-services/constants"
	"github.com/reelvault/asset-services/util"
)

// StagedFile is a media file that has been written to storage but
// not yet recorded in the asset store. The caller either commits it
// or removes it.
type StagedFile struct {
	DurationSeconds float64
	Path            string
	SizeBytes       int64
}

// Transcoder does all of the media work for the lifecycle manager.
// Every method that writes a file writes it under a fresh storage
// name and removes it again if the operation fails.
type Transcoder interface {
	// Ingest copies r into storage and measures the result.
	Ingest(ctx context.Context, r io.Reader, filename string) (*StagedFile, error)
	// Trim writes the [start, end] section of source to a new file.
	Trim(ctx context.Context, sourcePath string, start, end float64) (*StagedFile, error)
	// Concat joins sources, in order, into a new file.
	Concat(ctx context.Context, sourcePaths []string) (*StagedFile, error)
	// Remove deletes a staged or stored file. Removing a file that
	// does not exist is not an error.
	Remove(path string) error
}

// FormatIdentifier returns a format id, such as a PRONOM id, for the
// file at path. It returns an empty string if the format is unknown.
type FormatIdentifier interface {
	Identify(path string) (string, error)
}

// NewStorageName returns a random file name that keeps the
// extension of filename if that extension looks sane.
func NewStorageName(filename string) string {
	ext := util.SafeExtension(filename, constants.DefaultExtension, constants.MaxExtensionLength)
	return uuid.NewString() + ext
}
