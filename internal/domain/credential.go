package domain

import "time"

// APIKey is a reusable provider credential carrying a remaining-credits
// balance. A key may be selected for a job only while it is active and its
// balance strictly exceeds the job cost; it is debited only after success.
type APIKey struct {
	ID        string
	Name      string
	Provider  string
	Secret    string
	Credits   float64
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
