package media

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// Local writes files under dir and serves them from baseURL/uploads.
type Local struct {
	dir     string
	baseURL string
}

func NewLocal(dir, publicBaseURL string) *Local {
	return &Local{dir: dir, baseURL: strings.TrimRight(publicBaseURL, "/")}
}

func (l *Local) Upload(ctx context.Context, data []byte, contentType, folder string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", uploadErr("%v", err)
	}
	if len(data) == 0 {
		return "", uploadErr("empty payload")
	}

	key := objectKey(folder, contentType)
	path := filepath.Join(l.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", uploadErr("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", uploadErr("write: %v", err)
	}
	return l.baseURL + "/uploads/" + key, nil
}
