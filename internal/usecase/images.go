package usecase

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/amalkrishna0123/Chinju-StoreOrg/internal/domain"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"
)

const maxConcurrentEncodes = 4

// EncodeDataURI returns the image as a base64 data URI. The media type is
// sniffed from the content; anything that is not an image is rejected.
func EncodeDataURI(data []byte) (string, error) {
	if len(data) == 0 {
		return "", domain.NewValidationError("image", "Image file is empty.")
	}
	mediaType := mimetype.Detect(data).String()
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	if !strings.HasPrefix(mediaType, "image/") {
		return "", domain.NewValidationError("image", "Unsupported image type %s.", mediaType)
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// EncodeImages encodes every file concurrently. Each result is written to the
// slot of its input, so the output keeps submission order regardless of which
// encoding finishes first. The first failure cancels the remaining work.
func EncodeImages(ctx context.Context, files [][]byte) ([]string, error) {
	encoded := make([]string, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentEncodes)
	for i := range files {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			uri, err := EncodeDataURI(files[i])
			if err != nil {
				return err
			}
			encoded[i] = uri
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return encoded, nil
}
