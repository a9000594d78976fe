package newsletter

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/scene-ouverte/newsletter-core/internal/models"
)

const tokenBytes = 32

// IssueToken generates a fresh unsubscribe token. It is a bearer credential
// for the public unsubscribe endpoint, so it comes from a cryptographically
// strong source; it is issued once per subscriber and never regenerated.
func IssueToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Resolve looks a subscriber up by unsubscribe token. Unknown tokens yield
// ErrNotFound; a subscriber that is already unsubscribed still resolves.
func Resolve(store Store, token string) (*models.SubscriberModel, error) {
	sub, err := store.FindByToken(token)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ErrNotFound
	}
	return sub, nil
}
