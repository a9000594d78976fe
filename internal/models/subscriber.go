package models

import "time"

// SubscriberStatus is the lifecycle state of a newsletter subscriber.
type SubscriberStatus string

const (
	SubscriberActive       SubscriberStatus = "active"
	SubscriberUnsubscribed SubscriberStatus = "unsubscribed"
	SubscriberBounced      SubscriberStatus = "bounced"
)

// Valid reports whether s is a known lifecycle state.
func (s SubscriberStatus) Valid() bool {
	switch s {
	case SubscriberActive, SubscriberUnsubscribed, SubscriberBounced:
		return true
	}
	return false
}

// SubscriberModel is a newsletter subscriber keyed by normalized (lowercase) email.
// UnsubscribeToken is issued once at creation and never regenerated; it is the
// bearer credential for the public unsubscribe endpoint.
// Invariant: UnsubscribedAt is set if and only if Status is "unsubscribed".
type SubscriberModel struct {
	Base
	Email            string           `json:"email"             gorm:"uniqueIndex;not null"`
	FirstName        string           `json:"first_name"`
	LastName         string           `json:"last_name"`
	Status           SubscriberStatus `json:"status"            gorm:"type:varchar(16);default:'active';index"`
	UnsubscribeToken string           `json:"-"                 gorm:"uniqueIndex;not null"`
	Source           string           `json:"source"` // "admin" | "import" | "site"
	Tags             StringArray      `json:"tags"              gorm:"type:longtext"`
	UnsubscribedAt   *time.Time       `json:"unsubscribed_at"`
}

func (SubscriberModel) TableName() string { return "subscribers" }

// DisplayName returns the subscriber's name for logging, falling back to email.
func (m *SubscriberModel) DisplayName() string {
	switch {
	case m.FirstName != "" && m.LastName != "":
		return m.FirstName + " " + m.LastName
	case m.FirstName != "":
		return m.FirstName
	case m.LastName != "":
		return m.LastName
	}
	return m.Email
}
