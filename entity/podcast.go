package entity

import (
	"time"

	"github.com/google/uuid"
)

// Podcast owns a set of items; its title names the storage folder of their files
type Podcast struct {
	ID             uuid.UUID `json:"id" gorm:"type:text;primaryKey"`
	Title          string    `json:"title"`
	URL            string    `json:"url"`
	Type           string    `json:"type"`
	HasToBeDeleted bool      `json:"hasToBeDeleted"`
	LastUpdate     time.Time `json:"lastUpdate" gorm:"autoUpdateTime"`
}

// NewPodcast creates a podcast with a fresh identifier
func NewPodcast(title, url, kind string) *Podcast {
	return &Podcast{
		ID:    uuid.New(),
		Title: title,
		URL:   url,
		Type:  kind,
	}
}
