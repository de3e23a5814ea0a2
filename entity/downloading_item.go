package entity

// DownloadingItem pairs an item with the overrides of one download attempt.
// It is never persisted.
type DownloadingItem struct {
	Item     *Item
	Filename string
	URL      string
}

// NewDownloadingItem wraps an item without any override
func NewDownloadingItem(item *Item) *DownloadingItem {
	return &DownloadingItem{Item: item}
}

// URLOrDefault returns the override URL when present, the item URL otherwise
func (d *DownloadingItem) URLOrDefault() string {
	if d.URL != "" {
		return d.URL
	}
	if d.Item == nil {
		return ""
	}
	return d.Item.URL
}

// HasFilename reports whether the caller imposed a file name
func (d *DownloadingItem) HasFilename() bool {
	return d.Filename != ""
}
