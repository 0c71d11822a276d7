package testutil

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/reelvault/asset-services/media"
)

// MockTranscoder writes real files into Dir so tests can see what
// was kept and what was removed, but it never runs ffmpeg. The
// size of each output is the number of bytes written, and the
// duration comes from the fields below.
type MockTranscoder struct {
	mutex sync.Mutex
	Dir   string

	// IngestDuration is the duration reported for every upload.
	IngestDuration float64
	// ConcatDuration, if set, is reported for concatenations.
	// Otherwise the source durations are summed.
	ConcatDuration float64
	// OutputSize is the size, in bytes, of trim and concat output.
	OutputSize int

	// Durations maps source paths to their duration, for trim and
	// concat. Ingest fills it in.
	Durations map[string]float64

	IngestErr error
	TrimErr   error
	ConcatErr error
	RemoveErr error

	IngestCalls  int
	TrimCalls    int
	ConcatCalls  [][]string
	RemovedPaths []string
}

var _ media.Transcoder = (*MockTranscoder)(nil)

func NewMockTranscoder(dir string) *MockTranscoder {
	return &MockTranscoder{
		Dir:            dir,
		IngestDuration: 10,
		OutputSize:     64 * 1024,
		Durations:      make(map[string]float64),
	}
}

func (m *MockTranscoder) Ingest(ctx context.Context, r io.Reader, filename string) (*media.StagedFile, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.IngestCalls++
	if m.IngestErr != nil {
		return nil, m.IngestErr
	}
	path := filepath.Join(m.Dir, media.NewStorageName(filename))
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	size, err := io.Copy(file, r)
	file.Close()
	if err != nil {
		os.Remove(path)
		return nil, err
	}
	m.Durations[path] = m.IngestDuration
	return &media.StagedFile{DurationSeconds: m.IngestDuration, Path: path, SizeBytes: size}, nil
}

func (m *MockTranscoder) Trim(ctx context.Context, sourcePath string, start, end float64) (*media.StagedFile, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.TrimCalls++
	if m.TrimErr != nil {
		return nil, m.TrimErr
	}
	return m.write(sourcePath, end-start)
}

func (m *MockTranscoder) Concat(ctx context.Context, sourcePaths []string) (*media.StagedFile, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.ConcatCalls = append(m.ConcatCalls, append([]string(nil), sourcePaths...))
	if m.ConcatErr != nil {
		return nil, m.ConcatErr
	}
	duration := m.ConcatDuration
	if duration == 0 {
		for _, path := range sourcePaths {
			duration += m.Durations[path]
		}
	}
	return m.write(sourcePaths[0], duration)
}

func (m *MockTranscoder) Remove(path string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.RemovedPaths = append(m.RemovedPaths, path)
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Files returns the names of the files in Dir.
func (m *MockTranscoder) Files() []string {
	entries, err := os.ReadDir(m.Dir)
	if err != nil {
		panic(fmt.Sprintf("read %s: %v", m.Dir, err))
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

func (m *MockTranscoder) write(like string, duration float64) (*media.StagedFile, error) {
	path := filepath.Join(m.Dir, media.NewStorageName(like))
	if err := os.WriteFile(path, make([]byte, m.OutputSize), 0644); err != nil {
		return nil, err
	}
	m.Durations[path] = duration
	return &media.StagedFile{DurationSeconds: duration, Path: path, SizeBytes: int64(m.OutputSize)}, nil
}
