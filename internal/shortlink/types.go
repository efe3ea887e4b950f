package shortlink

import "time"

// Link is the persistent shortlink record. Code is immutable and unique for
// the lifetime of the record; Clicks is the only field mutated after creation.
type Link struct {
	Code         string
	OriginalURL  string
	CreatedAt    time.Time
	ExpiresAt    time.Time
	Clicks       int64
	PasswordHash string
	UserID       string
}

// Protected reports whether resolving this link demands a credential.
func (l *Link) Protected() bool {
	return l.PasswordHash != ""
}

// LinkInfo is the read-only metadata view of a link. The password hash is
// never part of it, only the derived PasswordProtected flag.
type LinkInfo struct {
	Code              string `json:"short_code"`
	OriginalURL       string `json:"original_url"`
	Clicks            int64  `json:"clicks"`
	CreatedAt         int64  `json:"created_at"`
	ExpiryTime        int64  `json:"expiry_time"`
	PasswordProtected bool   `json:"password_protected"`
}

type CreateInput struct {
	URL      string
	Password string
	TTL      time.Duration
	UserID   string
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}
