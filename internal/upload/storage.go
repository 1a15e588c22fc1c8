// Package upload stores user-supplied images and returns the URL they are
// served from.
//
// Two backends exist: DiskStorage writes into a local directory that the
// server exposes under /uploads/, and S3Storage puts objects into a bucket
// (AWS or any S3-compatible store such as MinIO).
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Backend names, also used as metric labels.
const (
	BackendDisk = "disk"
	BackendS3   = "s3"
)

// URLPrefix is the path under which uploaded files are served.
const URLPrefix = "/uploads/"

// ErrInvalidName is returned for names that could escape the upload area.
var ErrInvalidName = errors.New("upload: invalid file name")

// Storage persists an upload and returns its public URL.
type Storage interface {
	Save(ctx context.Context, name, contentType string, body io.Reader) (url string, err error)
	Backend() string
}

var extPattern = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)

// extByType covers the image types browsers actually send.
var extByType = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// NewName builds a collision-free stored name: <unix-millis>-<uuid><ext>.
//
// The extension comes from the client's file name when it is short and
// alphanumeric, otherwise from the sniffed content type. The rest of the
// client's name is discarded.
func NewName(original, contentType string) string {
	ext := strings.ToLower(filepath.Ext(original))
	if !extPattern.MatchString(ext) {
		ext = extByType[contentType]
	}
	return fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.NewString(), ext)
}

// validName rejects anything that is not a single plain path element.
func validName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return ErrInvalidName
	}
	return nil
}
