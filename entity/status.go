package entity

// Status represents the download lifecycle state of an item
type Status string

const (
	// StatusNotDownloaded is the initial state of an item that was never fetched
	StatusNotDownloaded Status = "NOT_DOWNLOADED"

	// StatusStarted means a transfer is in progress
	StatusStarted Status = "STARTED"

	// StatusPaused means the transfer was halted and the partial file kept for a resume
	StatusPaused Status = "PAUSED"

	// StatusStopped means the transfer was halted and the partial file discarded
	StatusStopped Status = "STOPPED"

	// StatusFailed means the transfer ended in error
	StatusFailed Status = "FAILED"

	// StatusFinish means the file is complete and finalized on disk
	StatusFinish Status = "FINISH"

	// StatusDeleted means the downloaded file was removed afterwards
	StatusDeleted Status = "DELETED"
)

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsActive returns true while a transfer may still write bytes for the item
func (s Status) IsActive() bool {
	return s == StatusStarted || s == StatusPaused
}

// IsTerminal returns true once a download attempt has ended
func (s Status) IsTerminal() bool {
	return s == StatusStopped || s == StatusFailed || s == StatusFinish || s == StatusDeleted
}

// IsCompleted returns true when the file reached its final place, whatever happened after
func (s Status) IsCompleted() bool {
	return s == StatusFinish || s == StatusDeleted
}

// ParseStatus converts a stored string back into a Status
func ParseStatus(value string) (Status, bool) {
	switch s := Status(value); s {
	case StatusNotDownloaded, StatusStarted, StatusPaused, StatusStopped,
		StatusFailed, StatusFinish, StatusDeleted:
		return s, true
	default:
		return StatusNotDownloaded, false
	}
}
