package newsletter

import (
	"fmt"
	"sync"
	"time"

	"github.com/scene-ouverte/newsletter-core/internal/models"
	"github.com/scene-ouverte/newsletter-core/internal/pkg/pagination"
	"github.com/scene-ouverte/newsletter-core/internal/pkg/response"
)

// fakeStore is an in-memory Store. Iteration order is insertion order.
type fakeStore struct {
	mu        sync.Mutex
	subs      []*models.SubscriberModel
	nextID    int
	insertErr map[string]error // forced Insert failure, keyed by email
	failAll   error            // forced failure for every call
}

func newFakeStore() *fakeStore {
	return &fakeStore{insertErr: map[string]error{}}
}

func (s *fakeStore) seed(email string, status models.SubscriberStatus, firstName, lastName string) *models.SubscriberModel {
	token, _ := IssueToken()
	sub := &models.SubscriberModel{
		Email:            email,
		FirstName:        firstName,
		LastName:         lastName,
		Status:           status,
		UnsubscribeToken: token,
		Source:           "admin",
		Tags:             models.StringArray{},
	}
	if status == models.SubscriberUnsubscribed {
		now := time.Now()
		sub.UnsubscribedAt = &now
	}
	if err := s.Insert(sub); err != nil {
		panic(err)
	}
	return sub
}

func (s *fakeStore) get(email string) *models.SubscriberModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sub.Email == email {
			return sub
		}
	}
	return nil
}

func (s *fakeStore) FindByID(id string) (*models.SubscriberModel, error) {
	return s.find(func(sub *models.SubscriberModel) bool { return sub.ID == id })
}

func (s *fakeStore) FindByEmail(email string) (*models.SubscriberModel, error) {
	return s.find(func(sub *models.SubscriberModel) bool { return sub.Email == email })
}

func (s *fakeStore) FindByToken(token string) (*models.SubscriberModel, error) {
	return s.find(func(sub *models.SubscriberModel) bool { return sub.UnsubscribeToken == token })
}

func (s *fakeStore) find(match func(*models.SubscriberModel) bool) (*models.SubscriberModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return nil, s.failAll
	}
	for _, sub := range s.subs {
		if match(sub) {
			cp := *sub
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) Insert(sub *models.SubscriberModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return s.failAll
	}
	if err, ok := s.insertErr[sub.Email]; ok {
		return err
	}
	for _, existing := range s.subs {
		if existing.Email == sub.Email {
			return ErrDuplicate
		}
	}
	s.nextID++
	sub.ID = fmt.Sprintf("sub-%d", s.nextID)
	cp := *sub
	s.subs = append(s.subs, &cp)
	return nil
}

func (s *fakeStore) UpdateStatus(id string, status models.SubscriberStatus, unsubscribedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return s.failAll
	}
	for _, sub := range s.subs {
		if sub.ID == id {
			sub.Status = status
			if status != models.SubscriberUnsubscribed {
				unsubscribedAt = nil
			}
			sub.UnsubscribedAt = unsubscribedAt
			return nil
		}
	}
	return ErrNotFound
}

func (s *fakeStore) ListActive() ([]models.SubscriberModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return nil, s.failAll
	}
	var out []models.SubscriberModel
	for _, sub := range s.subs {
		if sub.Status == models.SubscriberActive {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (s *fakeStore) List(status models.SubscriberStatus, q pagination.Query) ([]models.SubscriberModel, response.Pagination, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.SubscriberModel
	for _, sub := range s.subs {
		if status == "" || sub.Status == status {
			out = append(out, *sub)
		}
	}
	p := response.Pagination{Total: int64(len(out)), CurrentPage: q.Page, Size: q.Size}
	return out, p, nil
}

func (s *fakeStore) CountByStatus(status models.SubscriberStatus) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, sub := range s.subs {
		if sub.Status == status {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subs {
		if sub.ID == id {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

type sentMessage struct {
	To      string
	Subject string
	HTML    string
}

// fakeTransport records deliveries and fails per-recipient on demand.
type fakeTransport struct {
	mu           sync.Mutex
	unconfigured bool
	calls        []sentMessage
	errFor       map[string]error // keyed by recipient
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{errFor: map[string]error{}}
}

func (t *fakeTransport) Configured() bool { return !t.unconfigured }

func (t *fakeTransport) Deliver(to, subject, html string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, sentMessage{To: to, Subject: subject, HTML: html})
	if err, ok := t.errFor[to]; ok {
		return err
	}
	return nil
}

func (t *fakeTransport) sent() []sentMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]sentMessage, len(t.calls))
	copy(out, t.calls)
	return out
}

func testRenderer() *Renderer {
	return NewRenderer("https://theatre.example.fr", "Scène Ouverte — 12 rue des Remparts, 35000 Rennes")
}

func testEngine(store Store, transport Transport) *Engine {
	return NewEngine(store, transport, testRenderer(), nil, EngineOptions{
		Interval:    0, // no throttle in tests
		Workers:     1,
		ErrorSample: 10,
	}, nil)
}
