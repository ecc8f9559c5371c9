package domain

import "time"

// Entry represents one journal record
type Entry struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	CreatedAt int64  `json:"createdAt"` // epoch milliseconds
}

// Time returns the creation time in the local zone
func (e Entry) Time() time.Time {
	return time.UnixMilli(e.CreatedAt)
}

// ShortID returns the first 8 characters of the id for display
func (e Entry) ShortID() string {
	if len(e.ID) <= 8 {
		return e.ID
	}
	return e.ID[:8]
}
