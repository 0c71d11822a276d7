package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/op/go-logging"
)

// CommandRunner runs an external program and returns its stdout.
// Tests replace it to avoid needing ffmpeg.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec. The command is killed when
// ctx is done.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s: %w", name, ctx.Err())
		}
		return nil, fmt.Errorf("%s failed: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// FFmpegTranscoder writes media into StorageRoot using ffmpeg and
// measures it with ffprobe.
type FFmpegTranscoder struct {
	FFmpegBin   string
	FFprobeBin  string
	Logger      *logging.Logger
	Run         CommandRunner
	StorageRoot string
}

func NewFFmpegTranscoder(storageRoot, ffmpegBin, ffprobeBin string, logger *logging.Logger) *FFmpegTranscoder {
	return &FFmpegTranscoder{
		FFmpegBin:   ffmpegBin,
		FFprobeBin:  ffprobeBin,
		Logger:      logger,
		Run:         ExecRunner,
		StorageRoot: storageRoot,
	}
}

func (t *FFmpegTranscoder) Ingest(ctx context.Context, r io.Reader, filename string) (*StagedFile, error) {
	path := t.newPath(filename)
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	_, err = io.Copy(file, &contextReader{ctx: ctx, r: r})
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		t.removeQuietly(path)
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	return t.measure(ctx, path)
}

func (t *FFmpegTranscoder) Trim(ctx context.Context, sourcePath string, start, end float64) (*StagedFile, error) {
	path := t.newPath(sourcePath)
	args := []string{
		"-y", "-v", "error",
		"-i", sourcePath,
		"-ss", formatSeconds(start),
		"-to", formatSeconds(end),
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-c:a", "aac",
		path,
	}
	if err := t.ffmpeg(ctx, path, args); err != nil {
		return nil, err
	}
	return t.measure(ctx, path)
}

func (t *FFmpegTranscoder) Concat(ctx context.Context, sourcePaths []string) (*StagedFile, error) {
	if len(sourcePaths) == 0 {
		return nil, fmt.Errorf("nothing to concatenate")
	}
	manifest, err := os.CreateTemp(t.StorageRoot, "concat-*.txt")
	if err != nil {
		return nil, fmt.Errorf("create concat manifest: %w", err)
	}
	defer os.Remove(manifest.Name())
	err = writeConcatManifest(manifest, sourcePaths)
	closeErr := manifest.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, fmt.Errorf("write concat manifest: %w", err)
	}

	path := t.newPath(sourcePaths[0])
	args := []string{
		"-y", "-v", "error",
		"-f", "concat", "-safe", "0",
		"-i", manifest.Name(),
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-c:a", "aac",
		"-movflags", "+faststart",
		path,
	}
	if err := t.ffmpeg(ctx, path, args); err != nil {
		return nil, err
	}
	return t.measure(ctx, path)
}

func (t *FFmpegTranscoder) Remove(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (t *FFmpegTranscoder) newPath(filename string) string {
	return filepath.Join(t.StorageRoot, NewStorageName(filename))
}

// ffmpeg runs ffmpeg and removes output if the run fails.
func (t *FFmpegTranscoder) ffmpeg(ctx context.Context, output string, args []string) error {
	if _, err := t.Run(ctx, t.FFmpegBin, args...); err != nil {
		t.removeQuietly(output)
		return err
	}
	return nil
}

// measure returns a StagedFile for path. If the file cannot be
// measured, or has no duration, it is removed.
func (t *FFmpegTranscoder) measure(ctx context.Context, path string) (*StagedFile, error) {
	stat, err := os.Stat(path)
	if err != nil {
		t.removeQuietly(path)
		return nil, err
	}
	out, err := t.Run(ctx, t.FFprobeBin, "-v", "error", "-print_format", "json", "-show_format", path)
	if err != nil {
		t.removeQuietly(path)
		return nil, err
	}
	duration, err := parseProbeOutput(out)
	if err != nil {
		t.removeQuietly(path)
		return nil, err
	}
	return &StagedFile{
		DurationSeconds: duration,
		Path:            path,
		SizeBytes:       stat.Size(),
	}, nil
}

func (t *FFmpegTranscoder) removeQuietly(path string) {
	if err := t.Remove(path); err != nil && t.Logger != nil {
		t.Logger.Warningf("Could not remove %s: %v", path, err)
	}
}

func writeConcatManifest(w io.Writer, sources []string) error {
	for _, source := range sources {
		escaped := strings.ReplaceAll(source, "'", "'\\''")
		if _, err := fmt.Fprintf(w, "file '%s'\n", escaped); err != nil {
			return err
		}
	}
	return nil
}

func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', -1, 64)
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
