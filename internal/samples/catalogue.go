// Package samples lists and reads the audio sample library.
package samples

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xxxsen/samplesearch/internal/filestore"
	"github.com/xxxsen/samplesearch/internal/model"
)

const LocationPrefix = "/samples/"

var audioExtensions = map[string]struct{}{
	".mp3":  {},
	".wav":  {},
	".ogg":  {},
	".m4a":  {},
	".flac": {},
	".aac":  {},
}

type Catalogue struct {
	store filestore.Store
}

func NewCatalogue(store filestore.Store) *Catalogue {
	return &Catalogue{store: store}
}

func IsAudioFile(name string) bool {
	_, ok := audioExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// List returns every audio file in the store with ids assigned "1".."n" in
// name order.
func (c *Catalogue) List(ctx context.Context) ([]model.AudioFile, error) {
	keys, err := c.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list samples: %w", err)
	}
	files := make([]model.AudioFile, 0, len(keys))
	for _, key := range keys {
		if !IsAudioFile(key) {
			continue
		}
		files = append(files, model.AudioFile{
			ID:       strconv.Itoa(len(files) + 1),
			Name:     key,
			Location: LocationPrefix + key,
		})
	}
	return files, nil
}

func (c *Catalogue) Read(ctx context.Context, name string) ([]byte, error) {
	rc, err := c.store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
