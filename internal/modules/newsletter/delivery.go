package newsletter

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/scene-ouverte/newsletter-core/internal/models"
	"go.uber.org/zap"
)

// Transport is the outbound-mail collaborator. Deliver attempts one message
// to one destination; the error text is what the bounce classifier inspects.
type Transport interface {
	Deliver(to, subject, html string) error
	Configured() bool
}

// BounceClassifier decides whether a transport error is a hard bounce.
// Transports with structured bounce codes can supply a precise implementation;
// the default is a substring heuristic.
type BounceClassifier interface {
	IsHardBounce(errText string) bool
}

// SubstringClassifier flags an error as a hard bounce when its text contains
// any of the signatures, case-insensitively.
type SubstringClassifier struct {
	Signatures []string
}

func (c SubstringClassifier) IsHardBounce(errText string) bool {
	text := strings.ToLower(errText)
	for _, sig := range c.Signatures {
		if strings.Contains(text, sig) {
			return true
		}
	}
	return false
}

// DefaultClassifier matches the common SMTP permanent-failure vocabulary.
func DefaultClassifier() BounceClassifier {
	return SubstringClassifier{Signatures: []string{"550", "invalid", "rejected"}}
}

// EngineOptions tunes a delivery run.
type EngineOptions struct {
	Interval    time.Duration // minimum spacing between transport calls (shared across workers)
	Workers     int           // concurrent transport calls; 1 = strictly sequential
	ErrorSample int           // max (email, error) pairs kept in the report
}

// Engine runs campaign sends: it validates the request, renders one message
// per recipient, throttles transport calls, records per-recipient outcomes
// and reclassifies hard-bounced subscribers. One recipient's failure never
// aborts the run.
type Engine struct {
	store      Store
	transport  Transport
	renderer   *Renderer
	classifier BounceClassifier
	opts       EngineOptions
	log        *zap.Logger
}

func NewEngine(store Store, transport Transport, renderer *Renderer, classifier BounceClassifier, opts EngineOptions, log *zap.Logger) *Engine {
	if classifier == nil {
		classifier = DefaultClassifier()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.ErrorSample < 1 {
		opts.ErrorSample = 10
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		store:      store,
		transport:  transport,
		renderer:   renderer,
		classifier: classifier,
		opts:       opts,
		log:        log,
	}
}

// Send executes one campaign run and returns its aggregated outcome. Only
// validation failures are whole-run errors; they are raised before any side
// effect.
func (e *Engine) Send(ctx context.Context, req SendRequest) (*Report, error) {
	// Normalized once so validation and dispatch see the same value.
	req.TestEmail = strings.TrimSpace(req.TestEmail)
	if err := e.validate(req); err != nil {
		return nil, err
	}
	if req.TestEmail != "" {
		return e.sendTest(req), nil
	}
	return e.broadcast(ctx, req)
}

func (e *Engine) validate(req SendRequest) error {
	if strings.TrimSpace(req.Subject) == "" {
		return validationErrorf("subject is required")
	}
	if strings.TrimSpace(req.HTMLContent) == "" {
		return validationErrorf("htmlContent is required")
	}
	if (req.TestEmail != "") == req.SendToAll {
		return validationErrorf("exactly one of testEmail or sendToAll is required")
	}
	if !e.transport.Configured() {
		return ErrMailerNotConfigured
	}
	return nil
}

// sendTest delivers a single message to the test address. No subscriber
// record is read or written.
func (e *Engine) sendTest(req SendRequest) *Report {
	to := req.TestEmail
	html := e.renderer.RenderTest(req.HTMLContent, to)
	report := &Report{Total: 1, Errors: []SendError{}}

	if err := e.transport.Deliver(to, TestSubjectPrefix+req.Subject, html); err != nil {
		report.Failed = 1
		report.Errors = append(report.Errors, SendError{Email: to, Error: err.Error()})
		e.log.Warn("test send failed", zap.String("to", to), zap.Error(err))
		return report
	}
	report.Sent = 1
	return report
}

func (e *Engine) broadcast(ctx context.Context, req SendRequest) (*Report, error) {
	subs, err := e.store.ListActive()
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, ErrNoActiveRecipients
	}

	report := &Report{Total: len(subs), Errors: []SendError{}}
	var mu sync.Mutex

	// One shared ticker throttles the whole pool, not each worker.
	var throttle <-chan time.Time
	if e.opts.Interval > 0 {
		ticker := time.NewTicker(e.opts.Interval)
		defer ticker.Stop()
		throttle = ticker.C
	}

	jobs := make(chan models.SubscriberModel)
	var wg sync.WaitGroup
	for i := 0; i < e.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sub := range jobs {
				e.deliverOne(ctx, req, sub, throttle, report, &mu)
			}
		}()
	}

feed:
	for _, sub := range subs {
		select {
		case jobs <- sub:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if ctx.Err() != nil {
		e.log.Warn("broadcast cancelled",
			zap.Int("sent", report.Sent),
			zap.Int("failed", report.Failed),
			zap.Int("total", report.Total),
		)
		return report, nil
	}

	e.log.Info("broadcast completed",
		zap.Int("total", report.Total),
		zap.Int("sent", report.Sent),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

// deliverOne makes exactly one delivery attempt for one subscriber. A status
// write for a hard bounce happens on the same goroutine as the attempt, so it
// is never reordered relative to it.
func (e *Engine) deliverOne(ctx context.Context, req SendRequest, sub models.SubscriberModel, throttle <-chan time.Time, report *Report, mu *sync.Mutex) {
	if throttle != nil {
		select {
		case <-throttle:
		case <-ctx.Done():
			return
		}
	}

	html := e.renderer.Render(req.HTMLContent, &sub)
	err := e.transport.Deliver(sub.Email, req.Subject, html)

	if err == nil {
		mu.Lock()
		report.Sent++
		mu.Unlock()
		return
	}

	mu.Lock()
	report.Failed++
	if len(report.Errors) < e.opts.ErrorSample {
		report.Errors = append(report.Errors, SendError{Email: sub.Email, Error: err.Error()})
	}
	mu.Unlock()

	if e.classifier.IsHardBounce(err.Error()) {
		if updErr := e.store.UpdateStatus(sub.ID, models.SubscriberBounced, nil); updErr != nil {
			e.log.Error("failed to mark subscriber bounced",
				zap.String("email", sub.Email), zap.Error(updErr))
		} else {
			e.log.Warn("hard bounce, subscriber excluded from future sends",
				zap.String("email", sub.Email),
				zap.String("subscriber", sub.DisplayName()),
				zap.String("error", err.Error()))
		}
		return
	}
	e.log.Warn("transient delivery failure",
		zap.String("email", sub.Email),
		zap.String("subscriber", sub.DisplayName()),
		zap.String("error", err.Error()))
}
