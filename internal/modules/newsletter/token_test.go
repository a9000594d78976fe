package newsletter

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/scene-ouverte/newsletter-core/internal/models"
)

func TestIssueToken(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		token, err := IssueToken()
		if err != nil {
			t.Fatalf("IssueToken: %v", err)
		}
		if len(token) != 64 {
			t.Fatalf("token length = %d, want 64 hex chars", len(token))
		}
		if _, err := hex.DecodeString(token); err != nil {
			t.Fatalf("token %q is not hex: %v", token, err)
		}
		if seen[token] {
			t.Fatal("token collision")
		}
		seen[token] = true
	}
}

func TestResolve(t *testing.T) {
	store := newFakeStore()
	sub := store.seed("a@x.fr", models.SubscriberActive, "", "")

	got, err := Resolve(store, sub.UnsubscribeToken)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Email != "a@x.fr" {
		t.Errorf("resolved %q, want a@x.fr", got.Email)
	}

	if _, err := Resolve(store, "inconnu"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound for an unknown token", err)
	}
}
