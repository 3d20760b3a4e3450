// Package catalog drives the one-shot load that seeds the recipe store and
// tracks what the list screen should show while it happens.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"recipebox/models"
	"recipebox/store"
)

// FailedMessage is what the list screen shows when loading fails.
const FailedMessage = "Failed to fetch recipes"

var (
	// ErrLoading is returned by Retry and Refresh while a fetch is in flight.
	ErrLoading = errors.New("catalog: fetch already in progress")
	// ErrClosed is returned once Close has been called.
	ErrClosed = errors.New("catalog: closed")
)

// Gateway fetches the full recipe listing.
type Gateway interface {
	FetchRecipes(ctx context.Context) ([]models.Recipe, error)
}

// FetchError wraps a failed gateway call.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return FailedMessage + ": " + e.Err.Error()
}

func (e *FetchError) Unwrap() error { return e.Err }

type State int

const (
	StateLoading State = iota
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Option configures a Catalog.
type Option func(*Catalog)

func WithLogger(l *slog.Logger) Option {
	return func(c *Catalog) { c.logger = l }
}

// WithFetchObserver registers fn to be told the outcome of every fetch whose
// result was applied to the store.
func WithFetchObserver(fn func(err error)) Option {
	return func(c *Catalog) { c.observe = fn }
}

type Catalog struct {
	store   *store.Store
	gateway Gateway
	logger  *slog.Logger
	observe func(error)

	// base is cancelled by Close; every fetch context is derived from it.
	base   context.Context
	cancel context.CancelFunc

	// applyMu serializes the check-and-apply step of fetches so a stale
	// result can never land after a newer one. It is never held with mu
	// across store listeners.
	applyMu sync.Mutex

	mu         sync.Mutex
	state      State
	err        error
	generation uint64
	closed     bool
	wg         sync.WaitGroup
}

// New returns a catalog in the loading state. Nothing is fetched until Start
// or Refresh is called.
func New(st *store.Store, gw Gateway, opts ...Option) *Catalog {
	base, cancel := context.WithCancel(context.Background())
	c := &Catalog{
		store:   st,
		gateway: gw,
		logger:  slog.Default(),
		base:    base,
		cancel:  cancel,
		state:   StateLoading,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Catalog) Store() *store.Store { return c.store }

// Status reports the current state and, when failed, the fetch error.
func (c *Catalog) Status() (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.err
}

// Start kicks off a fetch in the background. Any fetch already in flight is
// superseded and its result will be discarded.
func (c *Catalog) Start(ctx context.Context) error {
	gen, err := c.begin(false)
	if err != nil {
		return err
	}
	c.spawn(ctx, gen)
	return nil
}

// Retry re-runs the fetch in the background. It fails with ErrLoading if a
// fetch is already running.
func (c *Catalog) Retry(ctx context.Context) error {
	gen, err := c.begin(true)
	if err != nil {
		return err
	}
	c.spawn(ctx, gen)
	return nil
}

// Refresh runs a fetch in the calling goroutine and returns its outcome.
func (c *Catalog) Refresh(ctx context.Context) error {
	gen, err := c.begin(true)
	if err != nil {
		return err
	}
	defer c.wg.Done()
	return c.fetch(ctx, gen)
}

// Close cancels every fetch in flight, stops their results from being applied
// and waits for them to return. Later Start, Retry and Refresh calls fail with
// ErrClosed.
func (c *Catalog) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cancel()
	c.wg.Wait()
}

func (c *Catalog) spawn(ctx context.Context, gen uint64) {
	go func() {
		defer c.wg.Done()
		c.fetch(ctx, gen)
	}()
}

// begin starts a new generation and registers its fetch with wg. With
// exclusive set it refuses to supersede a fetch that is still running.
func (c *Catalog) begin(exclusive bool) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, ErrClosed
	}
	// generation 0 is the state before the first fetch was ever started.
	if exclusive && c.state == StateLoading && c.generation > 0 {
		return 0, ErrLoading
	}
	c.generation++
	c.state = StateLoading
	c.err = nil
	c.wg.Add(1)
	return c.generation, nil
}

func (c *Catalog) fetch(ctx context.Context, gen uint64) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(c.base, cancel)
	defer stop()

	recipes, err := c.gateway.FetchRecipes(ctx)

	c.applyMu.Lock()
	defer c.applyMu.Unlock()

	c.mu.Lock()
	if c.closed || gen != c.generation {
		current, closed := c.generation, c.closed
		c.mu.Unlock()
		c.logger.Debug("discarding stale fetch result", "generation", gen, "current", current, "closed", closed)
		return nil
	}
	var ferr *FetchError
	if err != nil {
		ferr = &FetchError{Err: err}
		c.state = StateFailed
		c.err = ferr
	} else {
		c.state = StateReady
		c.err = nil
	}
	c.mu.Unlock()

	if ferr != nil {
		c.store.Load(nil)
		c.logger.Error("fetching recipes", "error", err)
		if c.observe != nil {
			c.observe(ferr)
		}
		return ferr
	}

	c.store.Load(uniqueIDs(recipes, c.logger))
	c.logger.Info("recipes loaded", "count", len(recipes))
	if c.observe != nil {
		c.observe(nil)
	}
	return nil
}

// uniqueIDs gives every recipe with an empty or repeated id a fresh one, so
// the store never holds two recipes under the same id.
func uniqueIDs(recipes []models.Recipe, logger *slog.Logger) []models.Recipe {
	seen := make(map[string]struct{}, len(recipes))
	out := make([]models.Recipe, len(recipes))
	for i, r := range recipes {
		if _, dup := seen[r.ID]; dup || r.ID == "" {
			old := r.ID
			r.ID = uuid.New().String()
			logger.Warn("re-keyed recipe with missing or duplicate id", "id", old, "new_id", r.ID, "title", r.Title)
		}
		seen[r.ID] = struct{}{}
		out[i] = r
	}
	return out
}
