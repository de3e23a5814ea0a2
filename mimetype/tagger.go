package mimetype

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/Sorrow446/go-mp4tag"
	"go.uber.org/zap"

	"github.com/1930s/Podcast-Server/entity"
)

// Tagger writes episode and podcast titles into finished mp4 audio files
type Tagger struct {
	logger *zap.Logger
}

// NewTagger creates a tagger
func NewTagger(logger *zap.Logger) *Tagger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tagger{logger: logger.Named("tagger")}
}

// OnFinish tags the file when it is an mp4 container, other formats are left untouched
func (t *Tagger) OnFinish(_ context.Context, item entity.Item, path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".m4a" && ext != ".m4b" && ext != ".mp4" {
		return nil
	}

	mp4t, err := mp4tag.Open(path)
	if err != nil {
		return err
	}
	defer mp4t.Close()

	tags := &mp4tag.MP4Tags{
		Title: item.Title,
	}
	if podcast := item.PodcastTitle(); podcast != "" {
		tags.Album = podcast
		tags.Artist = podcast
	}

	if err := mp4t.Write(tags, []string{}); err != nil {
		return err
	}

	t.logger.Debug("tagged file", zap.String("path", path), zap.String("title", item.Title))
	return nil
}
