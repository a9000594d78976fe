package newsletter

import (
	"strings"
	"time"

	"github.com/scene-ouverte/newsletter-core/internal/models"
)

// Service implements the subscriber lifecycle on top of the Store.
type Service struct {
	store Store
}

func NewService(store Store) *Service { return &Service{store: store} }

func (s *Service) Store() Store { return s.store }

// Subscribe registers a new subscriber. The email is normalized first;
// an address that is already registered yields ErrDuplicate and no write.
func (s *Service) Subscribe(email, firstName, lastName, source string) (*models.SubscriberModel, error) {
	email = normalizeEmail(email)
	if !strings.Contains(email, "@") {
		return nil, validationErrorf("invalid email address")
	}

	existing, err := s.store.FindByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicate
	}

	token, err := IssueToken()
	if err != nil {
		return nil, err
	}
	sub := &models.SubscriberModel{
		Email:            email,
		FirstName:        strings.TrimSpace(firstName),
		LastName:         strings.TrimSpace(lastName),
		Status:           models.SubscriberActive,
		UnsubscribeToken: token,
		Source:           source,
		Tags:             models.StringArray{},
	}
	if err := s.store.Insert(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// UnsubscribeResult reports the outcome of an unsubscribe request.
type UnsubscribeResult struct {
	Email   string
	Already bool // the subscriber was unsubscribed before this call
}

// UnsubscribeByToken transitions a subscriber to unsubscribed. The operation
// is idempotent: a second call succeeds and reports Already.
func (s *Service) UnsubscribeByToken(token string) (*UnsubscribeResult, error) {
	sub, err := Resolve(s.store, token)
	if err != nil {
		return nil, err
	}
	return s.unsubscribe(sub)
}

// UnsubscribeByEmail is the direct-form variant of the same transition.
func (s *Service) UnsubscribeByEmail(email string) (*UnsubscribeResult, error) {
	sub, err := s.store.FindByEmail(normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ErrNotFound
	}
	return s.unsubscribe(sub)
}

func (s *Service) unsubscribe(sub *models.SubscriberModel) (*UnsubscribeResult, error) {
	if sub.Status == models.SubscriberUnsubscribed {
		return &UnsubscribeResult{Email: sub.Email, Already: true}, nil
	}
	now := time.Now()
	if err := s.store.UpdateStatus(sub.ID, models.SubscriberUnsubscribed, &now); err != nil {
		return nil, err
	}
	return &UnsubscribeResult{Email: sub.Email}, nil
}

// Reactivate is the manual admin transition back to active, for subscribers
// that unsubscribed or were bounced out of broadcasts.
func (s *Service) Reactivate(id string) (*models.SubscriberModel, error) {
	sub, err := s.store.FindByID(id)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ErrNotFound
	}
	if sub.Status == models.SubscriberActive {
		return sub, nil
	}
	if err := s.store.UpdateStatus(sub.ID, models.SubscriberActive, nil); err != nil {
		return nil, err
	}
	sub.Status = models.SubscriberActive
	sub.UnsubscribedAt = nil
	return sub, nil
}

// Stats is the per-status subscriber breakdown for the admin dashboard.
type Stats struct {
	Active       int64 `json:"active"`
	Unsubscribed int64 `json:"unsubscribed"`
	Bounced      int64 `json:"bounced"`
	Total        int64 `json:"total"`
}

func (s *Service) Stats() (*Stats, error) {
	stats := &Stats{}
	for _, pair := range []struct {
		status models.SubscriberStatus
		dest   *int64
	}{
		{models.SubscriberActive, &stats.Active},
		{models.SubscriberUnsubscribed, &stats.Unsubscribed},
		{models.SubscriberBounced, &stats.Bounced},
	} {
		count, err := s.store.CountByStatus(pair.status)
		if err != nil {
			return nil, err
		}
		*pair.dest = count
	}
	stats.Total = stats.Active + stats.Unsubscribed + stats.Bounced
	return stats, nil
}
