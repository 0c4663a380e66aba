// Package uploadsvc stores request uploads on the local filesystem under the
// media root and hands back the public URL they are served from.
package uploadsvc

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/parikshahq/pariksha/core"
)

type localFileStore struct {
	root    string
	baseURL string
}

var _ core.FileStore = (*localFileStore)(nil)

func NewLocalFileStore() *localFileStore {
	return &localFileStore{
		root:    core.Conf.Media.Root,
		baseURL: core.Conf.Media.BaseURL,
	}
}

// Store writes r under a collision-proof name and returns the serving URL.
func (fs *localFileStore) Store(_ context.Context, filename string, r io.Reader) (string, error) {
	name := uuid.New().String() + filepath.Ext(filename)

	if err := os.MkdirAll(fs.root, 0o755); err != nil {
		return "", errors.Wrap(err, "creating media root")
	}
	f, err := os.Create(filepath.Join(fs.root, name))
	if err != nil {
		return "", errors.Wrap(err, "creating media file")
	}
	defer func() { _ = f.Close() }()

	if _, err = io.Copy(f, r); err != nil {
		return "", errors.Wrap(err, "writing media file")
	}
	return fs.baseURL + "/" + name, nil
}
