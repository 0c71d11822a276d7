package replication

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/op/go-logging"
	"github.com/reelvault/asset-services/models/asset"
	"github.com/reelvault/asset-services/util/logger"
)

// Uploader copies committed asset media to an S3 bucket. The source
// file stays where it is.
type Uploader struct {
	Bucket string
	Client *minio.Client
	Logger *logging.Logger
}

func NewUploader(client *minio.Client, bucket string, logger *logging.Logger) *Uploader {
	return &Uploader{
		Bucket: bucket,
		Client: client,
		Logger: logger,
	}
}

var videoTypes = map[string]string{
	".avi":  "video/x-msvideo",
	".m4v":  "video/x-m4v",
	".mkv":  "video/x-matroska",
	".mov":  "video/quicktime",
	".mp4":  "video/mp4",
	".mpeg": "video/mpeg",
	".mpg":  "video/mpeg",
	".ogv":  "video/ogg",
	".webm": "video/webm",
}

// ContentType guesses the MIME type of a media file from its
// extension.
func ContentType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if contentType, ok := videoTypes[ext]; ok {
		return contentType
	}
	if contentType := mime.TypeByExtension(ext); contentType != "" {
		return contentType
	}
	return "application/octet-stream"
}

// ObjectKey returns the S3 key for a, assets/<id>/<storage name>.
func ObjectKey(a *asset.Asset) string {
	return fmt.Sprintf("assets/%d/%s", a.ID, a.StorageName())
}

// Upload copies a's media file to the bucket under ObjectKey(a).
func (u *Uploader) Upload(ctx context.Context, a *asset.Asset) (minio.UploadInfo, error) {
	key := ObjectKey(a)
	stat, err := os.Stat(a.StorageLocation)
	if err != nil {
		return minio.UploadInfo{}, fmt.Errorf("asset %d: %w", a.ID, err)
	}
	contentType := ContentType(a.StorageLocation)
	progress := logger.NewUploadProgressLogger(u.Logger, u.Bucket+"/"+key, stat.Size())
	info, err := u.Client.FPutObject(ctx, u.Bucket, key, a.StorageLocation, minio.PutObjectOptions{
		ContentType: contentType,
		Progress:    progress,
		UserMetadata: map[string]string{
			"asset-id":  strconv.FormatInt(a.ID, 10),
			"filename":  a.Filename,
			"format-id": a.FormatID,
		},
	})
	if err != nil {
		return info, fmt.Errorf("upload asset %d to %s/%s: %w", a.ID, u.Bucket, key, err)
	}
	u.Logger.Infof("Copied asset %d to %s/%s (%d bytes)", a.ID, u.Bucket, key, info.Size)
	return info, nil
}
