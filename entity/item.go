package entity

import (
	"time"

	"github.com/google/uuid"
)

// Item is a single downloadable episode tracked by the server
type Item struct {
	ID           uuid.UUID  `json:"id" gorm:"type:text;primaryKey"`
	Title        string     `json:"title"`
	URL          string     `json:"url"`
	PodcastID    uuid.UUID  `json:"podcastId" gorm:"type:text;index"`
	Podcast      *Podcast   `json:"podcast,omitempty" gorm:"foreignKey:PodcastID"`
	Status       Status     `json:"status" gorm:"type:text;index"`
	FileName     string     `json:"fileName"`
	Length       int64      `json:"length"`
	MimeType     string     `json:"mimeType"`
	Progression  int        `json:"progression" gorm:"-"`
	NumberOfFail int        `json:"numberOfFail"`
	PubDate      *time.Time `json:"pubDate,omitempty"`
	DownloadDate *time.Time `json:"downloadDate,omitempty"`
	CreationDate time.Time  `json:"creationDate" gorm:"autoCreateTime"`
}

// NewItem creates a not-yet-downloaded item attached to the given podcast
func NewItem(podcast *Podcast, title, url string) *Item {
	item := &Item{
		ID:     uuid.New(),
		Title:  title,
		URL:    url,
		Status: StatusNotDownloaded,
	}
	if podcast != nil {
		item.Podcast = podcast
		item.PodcastID = podcast.ID
	}
	return item
}

// AddATry records one more failed download attempt
func (i *Item) AddATry() *Item {
	i.NumberOfFail++
	return i
}

// PodcastTitle returns the title of the owning podcast, empty when it is not loaded
func (i *Item) PodcastTitle() string {
	if i.Podcast == nil {
		return ""
	}
	return i.Podcast.Title
}

// Snapshot returns a copy safe to hand to other goroutines
func (i *Item) Snapshot() Item {
	c := *i
	if i.Podcast != nil {
		p := *i.Podcast
		c.Podcast = &p
	}
	return c
}
