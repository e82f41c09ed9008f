package models

// User is a row in the user directory. The directory itself is owned by an
// external service; this service only reads it.
type User struct {
	ID       string  `db:"id" json:"id"`
	Name     string  `db:"name" json:"name"`
	Email    string  `db:"email" json:"email"`
	SchoolID *string `db:"school_id" json:"schoolId,omitempty"`
}

// School is the attribute announcements can be scoped by.
type School struct {
	ID     string `db:"id" json:"id"`
	Name   string `db:"name" json:"name"`
	Status string `db:"status" json:"status"`
}

// Principal is the authenticated identity bound to a connection. It is
// resolved once at handshake and never changes for the connection lifetime.
type Principal struct {
	UserID   string
	Email    string
	SchoolID *string
}
