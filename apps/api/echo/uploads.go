package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/parikshahq/pariksha/core"
)

// storeUpload saves the named multipart file if the request carries one and
// returns its public URL. An absent file is not an error.
func storeUpload(ctx echo.Context, store core.FileStore, field string) (string, error) {
	if store == nil {
		return "", nil
	}
	fh, err := ctx.FormFile(field)
	if err != nil {
		return "", nil // no multipart form, or no such file
	}
	f, err := fh.Open()
	if err != nil {
		return "", errors.Wrap(err, "opening upload "+field)
	}
	defer func() { _ = f.Close() }()
	return store.Store(ctx.Request().Context(), fh.Filename, f)
}
