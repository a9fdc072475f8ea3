// Package media stores photo bytes and hands back a public URL that the
// vision model can fetch.
package media

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var ErrUpload = errors.New("media upload failed")

// Folders used by the workflows.
const (
	FolderReports     = "waste_images"
	FolderCollections = "waste-uploads"
)

type Uploader interface {
	Upload(ctx context.Context, data []byte, contentType, folder string) (string, error)
}

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/heic": ".heic",
}

// AllowedContentType reports whether uploads of this type are accepted.
func AllowedContentType(contentType string) bool {
	_, ok := extensions[strings.ToLower(contentType)]
	return ok
}

// objectKey returns folder/<uuid><ext>.
func objectKey(folder, contentType string) string {
	ext, ok := extensions[strings.ToLower(contentType)]
	if !ok {
		ext = ".jpg"
	}
	folder = strings.Trim(folder, "/")
	return fmt.Sprintf("%s/%s%s", folder, uuid.New().String(), ext)
}

func uploadErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrUpload, fmt.Sprintf(format, args...))
}
