package mediawiki

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/wikivault/wikivault/internal/core/domain"
	"github.com/wikivault/wikivault/internal/core/ports/driven"
	"github.com/wikivault/wikivault/internal/logger"
)

// imageBatchSize is the ailimit per request.
const imageBatchSize = 500

// Ensure ImageReader implements the interface.
var _ driven.ImageFeed = (*ImageReader)(nil)

// ImageReader lists the wiki's uploaded files.
type ImageReader struct {
	client *Client
}

// NewImageReader creates an image reader over the given client.
func NewImageReader(client *Client) *ImageReader {
	return &ImageReader{client: client}
}

// List returns all current files with their checksums, name ascending.
func (r *ImageReader) List(ctx context.Context) ([]domain.WikiFile, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "allimages")
	params.Set("aisort", "name")
	params.Set("ailimit", strconv.Itoa(imageBatchSize))
	params.Set("aiprop", "sha1|timestamp|url|size")

	pager := NewPager(r.client.Do, params, "query", "allimages")
	pager.OnProgress(func(batch, items int) {
		logger.Debug("allimages batch %d: %d records", batch, items)
	})

	var files []domain.WikiFile
	for {
		item, ok, err := pager.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		var raw rawImage
		if err := json.Unmarshal(item, &raw); err != nil {
			logger.Warn("skipping unreadable image record: %v", err)
			continue
		}
		file, err := raw.toDomain()
		if err != nil {
			logger.Warn("skipping invalid image record %q: %v", raw.Name, err)
			continue
		}
		files = append(files, *file)
	}

	return files, nil
}
