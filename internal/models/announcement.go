package models

import "time"

// Announcement is the serialized form of an announcement as created by the
// REST layer. The row itself is owned there; this service only relays it.
// A nil SchoolID means the announcement is system-wide.
type Announcement struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	SchoolID  *string   `json:"schoolId,omitempty"`
	AuthorID  *string   `json:"authorId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Urgent    bool      `json:"urgent"`
}
