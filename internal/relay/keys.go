package relay

// Group keys are derived from domain identity, never from client-supplied
// topic names.

// AnnouncementsKey is the global announcements group every broadcast
// connection joins.
const AnnouncementsKey = "announcements"

// ChatPairKey returns the group key for the chat between two users. The pair
// is ordered deterministically so both participants compute the identical key
// regardless of which side is "self".
func ChatPairKey(a, b string) string {
	if a < b {
		a, b = b, a
	}
	return "chat:" + a + ":" + b
}

// SchoolAnnouncementsKey returns the announcements group scoped to one school.
func SchoolAnnouncementsKey(schoolID string) string {
	return "announcements:school:" + schoolID
}

// UserKey returns the personal group a user's notification connections join.
func UserKey(userID string) string {
	return "user:" + userID
}
