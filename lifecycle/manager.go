package lifecycle

import (
	"context"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/reelvault/asset-services/media"
	"github.com/reelvault/asset-services/models/asset"
	"github.com/reelvault/asset-services/models/common"
	"github.com/reelvault/asset-services/validation"
)

// Notifier is told about every newly committed asset.
// network.NSQClient satisfies it.
type Notifier interface {
	Enqueue(topic string, assetID int64) error
}

// Manager creates assets by upload, trim and merge, and reads them
// back. It never changes or deletes a persisted asset.
//
// Media work happens in two phases. The transcoder stages a file
// under a fresh storage name, and then the manager either commits it
// (writes the asset record) or discards it (removes the file).
type Manager struct {
	// Context holds the config, logger, store and transcoder.
	Context *common.Context

	// Notifier, if not nil, receives the id of each committed asset
	// on Config.ReplicationTopic.
	Notifier Notifier

	Validator *validation.Validator

	// Now returns the current time. Tests replace it.
	Now func() time.Time
}

// NewManager returns a Manager that uses the store, transcoder and
// NSQ client in context.
func NewManager(context *common.Context) *Manager {
	m := &Manager{
		Context:   context,
		Validator: validation.NewValidator(validation.BoundsFromConfig(context.Config)),
		Now:       time.Now,
	}
	if context.NSQClient != nil {
		m.Notifier = context.NSQClient
	}
	return m
}

// Upload stores the video in r, validates it, and records it as a new
// asset. The file is removed if it fails validation or cannot be
// recorded. Returns the new asset's id.
func (m *Manager) Upload(ctx context.Context, r io.Reader, filename string) (int64, error) {
	log := m.Context.Logger
	log.Infof("Processing upload %s", filename)
	tctx, cancel := m.transcodeContext(ctx)
	staged, err := m.Context.Transcoder.Ingest(tctx, r, filename)
	cancel()
	if err != nil {
		log.Errorf("Processing error for upload %s: %v", filename, err)
		return 0, common.NewProcessingError(fmt.Sprintf("Error processing video: %v", err), err)
	}

	candidate := m.newAsset(displayName(filename, staged.Path), staged)
	if err := m.Validator.Validate(candidate); err != nil {
		log.Warningf("Upload %s failed validation: %s", filename, err.Error())
		m.discard(staged)
		return 0, err
	}
	return m.commit(ctx, candidate, staged)
}

// Get returns the view of asset id.
func (m *Manager) Get(ctx context.Context, id int64) (*asset.AssetView, error) {
	a, err := m.loadAsset(ctx, id)
	if err != nil {
		return nil, err
	}
	return a.ToView(), nil
}

// Trim writes seconds start through end of asset id to a new asset
// and returns the new asset's id. The range must satisfy
// 0 <= start < end <= duration. Bad ranges are rejected, never
// clamped, and the transcoder is not called for them.
func (m *Manager) Trim(ctx context.Context, id int64, start, end float64) (int64, error) {
	if err := checkTrimRange(start, end); err != nil {
		return 0, err
	}
	source, err := m.loadAsset(ctx, id)
	if err != nil {
		return 0, err
	}
	if end > source.DurationSeconds {
		return 0, common.NewValidationError(fmt.Sprintf(
			"Invalid trim range: end (%g) is past the end of the video (%g seconds)",
			end, source.DurationSeconds))
	}

	log := m.Context.Logger
	log.Infof("Trimming asset %d from %g to %g", id, start, end)
	tctx, cancel := m.transcodeContext(ctx)
	staged, err := m.Context.Transcoder.Trim(tctx, source.StorageLocation, start, end)
	cancel()
	if err != nil {
		log.Errorf("Processing error while trimming asset %d: %v", id, err)
		return 0, common.NewProcessingError(fmt.Sprintf("Error trimming video: %v", err), err)
	}
	return m.commit(ctx, m.newAsset(filepath.Base(staged.Path), staged), staged)
}

// Merge concatenates the assets in ids, in order, into a new asset
// and returns its id. An id may appear more than once.
func (m *Manager) Merge(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, common.NewValidationError("video_ids must be a non-empty list.")
	}
	if len(ids) == 1 {
		return 0, common.NewValidationError("At least two assets are required to merge")
	}

	log := m.Context.Logger
	log.Infof("Merging assets %s", formatIDs(ids))
	sctx, cancel := m.storeContext(ctx)
	found, err := m.Context.Store.AssetsByIDs(sctx, ids)
	cancel()
	if err != nil {
		return 0, common.NewProcessingError(fmt.Sprintf("Database error: %v", err), err)
	}
	if missing := missingIDs(ids, found); len(missing) > 0 {
		msg := fmt.Sprintf("Video not found Ids : %s", formatIDs(missing))
		log.Warning(msg)
		return 0, common.NewNotFoundError(msg, missing...)
	}

	sources := make([]string, len(ids))
	for i, id := range ids {
		sources[i] = found[id].StorageLocation
	}
	tctx, cancel := m.transcodeContext(ctx)
	staged, err := m.Context.Transcoder.Concat(tctx, sources)
	cancel()
	if err != nil {
		log.Errorf("Processing error while merging %s: %v", formatIDs(ids), err)
		return 0, common.NewProcessingError(fmt.Sprintf("Error merging videos: %v", err), err)
	}
	return m.commit(ctx, m.newAsset(filepath.Base(staged.Path), staged), staged)
}

// commit identifies the format of a and records it as a new asset.
// If that fails, the staged file is discarded.
func (m *Manager) commit(ctx context.Context, a *asset.Asset, staged *media.StagedFile) (int64, error) {
	log := m.Context.Logger
	m.identify(a)
	sctx, cancel := m.storeContext(ctx)
	id, err := m.Context.Store.InsertAsset(sctx, a)
	cancel()
	if err != nil {
		log.Errorf("Database error saving %s: %v", staged.Path, err)
		m.discard(staged)
		return 0, common.NewProcessingError(fmt.Sprintf("Database error: %v", err), err)
	}
	log.Infof("Saved asset %d (%s, %d bytes, %.2f seconds)", id, a.Filename, a.SizeBytes, a.DurationSeconds)
	m.notify(id)
	return id, nil
}

// discard removes a staged file. Failure to remove it is logged
// but does not change the outcome of the operation.
func (m *Manager) discard(staged *media.StagedFile) {
	if err := m.Context.Transcoder.Remove(staged.Path); err != nil {
		m.Context.Logger.Warningf("Could not remove rejected file %s: %v", staged.Path, err)
	}
}

func (m *Manager) notify(id int64) {
	if m.Notifier == nil {
		return
	}
	topic := m.Context.Config.ReplicationTopic
	if err := m.Notifier.Enqueue(topic, id); err != nil {
		m.Context.Logger.Warningf("Could not queue asset %d on %s: %v", id, topic, err)
	}
}

func (m *Manager) loadAsset(ctx context.Context, id int64) (*asset.Asset, error) {
	sctx, cancel := m.storeContext(ctx)
	a, err := m.Context.Store.AssetByID(sctx, id)
	cancel()
	if err != nil {
		return nil, common.NewProcessingError(fmt.Sprintf("Database error: %v", err), err)
	}
	if a == nil {
		return nil, common.NewNotFoundError(fmt.Sprintf("video not found for ID : %d", id))
	}
	return a, nil
}

func (m *Manager) newAsset(filename string, staged *media.StagedFile) *asset.Asset {
	return &asset.Asset{
		CreatedAt:       m.Now().UTC(),
		DurationSeconds: staged.DurationSeconds,
		Filename:        filename,
		SizeBytes:       staged.SizeBytes,
		StorageLocation: staged.Path,
	}
}

// identify sets a.FormatID when a format identifier is configured.
// A file siegfried cannot identify keeps an empty format id.
func (m *Manager) identify(a *asset.Asset) {
	if m.Context.FormatIdentifier == nil {
		return
	}
	formatID, err := m.Context.FormatIdentifier.Identify(a.StorageLocation)
	if err != nil {
		m.Context.Logger.Warningf("Could not identify format of %s: %v", a.StorageLocation, err)
	}
	a.FormatID = formatID
}

func (m *Manager) transcodeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.Context.Config.TranscodeTimeout)
}

func (m *Manager) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.Context.Config.StoreTimeout)
}

func checkTrimRange(start, end float64) error {
	if math.IsNaN(start) || math.IsNaN(end) || math.IsInf(start, 0) || math.IsInf(end, 0) {
		return common.NewValidationError("Invalid trim range: start and end must be finite numbers")
	}
	if start < 0 {
		return common.NewValidationError(fmt.Sprintf("Invalid trim range: start (%g) cannot be negative", start))
	}
	if start >= end {
		return common.NewValidationError(fmt.Sprintf("Invalid trim range: start (%g) must be less than end (%g)", start, end))
	}
	return nil
}

// missingIDs returns the ids that are not in found, in the order they
// first appear in ids, without repeats.
func missingIDs(ids []int64, found map[int64]*asset.Asset) []int64 {
	var missing []int64
	seen := make(map[int64]bool)
	for _, id := range ids {
		if _, ok := found[id]; !ok && !seen[id] {
			seen[id] = true
			missing = append(missing, id)
		}
	}
	return missing
}

// formatIDs prints ids like [1, 2, 3].
func formatIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// displayName is the name we show for an upload. It is never used
// to build a path.
func displayName(filename, storagePath string) string {
	name := strings.TrimSpace(filepath.Base(strings.ReplaceAll(filename, "\\", "/")))
	if name == "" || name == "." || name == "/" {
		return filepath.Base(storagePath)
	}
	return name
}
