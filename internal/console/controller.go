package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/KaramelBytes/datasense-cli/internal/datafile"
	"github.com/KaramelBytes/datasense-cli/internal/service"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Service is the remote analysis service as seen by the console.
// *service.Client implements it.
type Service interface {
	Upload(ctx context.Context, filename string, content io.Reader) (*service.UploadResponse, error)
	Query(ctx context.Context, question string) (*service.QueryResponse, error)
}

// Policy decides what happens to a query issued while another is in flight.
type Policy string

const (
	PolicyReject Policy = "reject"
	PolicyQueue  Policy = "queue"
)

// ParsePolicy accepts "reject" (default when empty) or "queue".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(PolicyReject):
		return PolicyReject, nil
	case string(PolicyQueue):
		return PolicyQueue, nil
	}
	return "", fmt.Errorf("invalid query policy: %s (use reject or queue)", s)
}

// ErrBusy is returned by Ask under PolicyReject while a query is outstanding.
var ErrBusy = errors.New("a query is already in flight")

// Controller owns the console state and runs the upload and query handlers.
// It is safe for concurrent use; every transition goes through Apply under mu.
type Controller struct {
	svc    Service
	policy Policy
	logger *zap.Logger
	flight *semaphore.Weighted

	mu     sync.Mutex
	state  State
	subs   map[int]chan State
	nextID int
}

// Option configures a Controller.
type Option func(*Controller)

// WithPolicy sets the single-flight policy for queries.
func WithPolicy(p Policy) Option { return func(c *Controller) { c.policy = p } }

// WithLogger sets the diagnostics logger.
func WithLogger(l *zap.Logger) Option { return func(c *Controller) { c.logger = l } }

// NewController returns a controller with empty state.
func NewController(svc Service, opts ...Option) *Controller {
	c := &Controller{
		svc:    svc,
		policy: PolicyReject,
		flight: semaphore.NewWeighted(1),
		subs:   make(map[int]chan State),
	}
	for _, o := range opts {
		o(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// Snapshot returns the current state. The history slice is a private copy.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() State {
	s := c.state
	s.History = append([]Record(nil), c.state.History...)
	return s
}

// Dispatch applies e and publishes the resulting state to subscribers.
func (c *Controller) Dispatch(e Event) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Apply(c.state, e)
	s := c.snapshotLocked()
	for _, ch := range c.subs {
		publish(ch, s)
	}
	return s
}

// publish keeps only the newest states when a subscriber falls behind.
func publish(ch chan State, s State) {
	for {
		select {
		case ch <- s:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// Subscribe returns a channel receiving every new state, and a cancel func
// that closes it. Slow readers lose intermediate states, never the latest one.
func (c *Controller) Subscribe(buffer int) (<-chan State, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan State, buffer)
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = ch
	c.mu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			close(ch)
			c.mu.Unlock()
		})
	}
}

// SetDraft records the question being composed.
func (c *Controller) SetDraft(text string) State { return c.Dispatch(DraftChanged{Text: text}) }

// DismissAlert closes the modal alert.
func (c *Controller) DismissAlert() State { return c.Dispatch(AlertDismissed{}) }

// SelectFile is the upload handler. A file that is not text/csv raises the
// alert, keeps the previous selection and returns datafile.ErrNotCSV without
// any request. A valid file becomes the selection immediately and is uploaded
// once; the outcome lands in UploadStatus and is not returned as an error.
func (c *Controller) SelectFile(ctx context.Context, path string) error {
	f, err := datafile.Open(path)
	if err != nil {
		c.logger.Warn("file selection rejected", zap.String("path", path), zap.Error(err))
		c.Dispatch(FileRejected{Name: filepath.Base(path)})
		return err
	}
	if !f.IsCSV() {
		c.logger.Warn("file selection rejected", zap.String("path", path), zap.String("media_type", f.MediaType))
		c.Dispatch(FileRejected{Name: f.Name, MediaType: f.MediaType})
		return fmt.Errorf("%s (%s): %w", f.Name, f.MediaType, datafile.ErrNotCSV)
	}

	c.Dispatch(FileSelected{File: f})
	c.logger.Info("upload started", zap.String("file", f.Name), zap.Int64("size", f.Size))

	rc, err := f.Reader()
	if err != nil {
		c.logger.Error("upload failed", zap.String("file", f.Name), zap.Error(err))
		c.Dispatch(UploadFailed{Err: err})
		return nil
	}
	defer rc.Close()

	resp, err := c.svc.Upload(ctx, f.Name, rc)
	if err != nil {
		c.logger.Error("upload failed", zap.String("file", f.Name), zap.Error(err))
		c.Dispatch(UploadFailed{Err: err})
		return nil
	}
	c.logger.Info("upload finished", zap.String("file", f.Name), zap.String("request_id", resp.RequestID))
	c.Dispatch(UploadSucceeded{Response: resp})
	return nil
}

// Ask is the query handler. It performs no validation of the question.
// Busy is set before the request and cleared, along with the draft, after it
// resolves either way. A failure raises the alert and is also returned.
func (c *Controller) Ask(ctx context.Context, question string) error {
	if c.policy == PolicyQueue {
		if err := c.flight.Acquire(ctx, 1); err != nil {
			return err
		}
	} else if !c.flight.TryAcquire(1) {
		return ErrBusy
	}
	defer c.flight.Release(1)

	c.Dispatch(QueryStarted{Question: question})
	c.logger.Info("query started", zap.String("question", question))

	resp, err := c.svc.Query(ctx, question)
	if err != nil {
		c.logger.Error("query failed", zap.String("question", question), zap.Error(err))
		c.Dispatch(QueryFailed{Question: question, Err: err})
		return err
	}
	c.logger.Info("query answered", zap.String("question", question), zap.String("request_id", resp.RequestID), zap.Int("insights", len(resp.Insights)))
	c.Dispatch(QueryAnswered{Question: question, Response: resp})
	return nil
}
