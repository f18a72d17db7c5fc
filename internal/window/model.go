// Package window implements the windowed front end: a tick-driven state
// machine and a small local web window that renders it.
package window

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/i474232898/weather-cli/internal/weather"
)

// State is the window's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateDisplaying
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateDisplaying:
		return "displaying"
	default:
		return "unknown"
	}
}

var (
	// ErrBusy is returned by Trigger while a lookup is outstanding.
	ErrBusy = errors.New("a lookup is already in progress")
	// ErrBlankCity is returned by Trigger for an empty city field.
	ErrBlankCity = errors.New("please enter a city name")
)

var validate = validator.New()

// Lookuper performs a single weather lookup.
type Lookuper interface {
	Lookup(ctx context.Context, city string) weather.Outcome
}

// Model holds the window state. Trigger dispatches a lookup onto a background
// goroutine; Tick collects its Outcome without blocking. All methods are safe
// for concurrent use.
type Model struct {
	mu sync.Mutex

	svc     Lookuper
	baseCtx context.Context
	log     *slog.Logger

	state     State
	city      string
	requestID string
	outcome   weather.Outcome

	// Capacity 1: Trigger is refused while loading, so at most one sender
	// is ever outstanding and its send never blocks.
	results chan weather.Outcome
}

// NewModel creates a Model in the Idle state. Background lookups inherit
// ctx's values but not its cancellation.
func NewModel(ctx context.Context, svc Lookuper, log *slog.Logger) *Model {
	if log == nil {
		log = slog.Default()
	}
	return &Model{
		svc:     svc,
		baseCtx: context.WithoutCancel(ctx),
		log:     log,
		state:   StateIdle,
		results: make(chan weather.Outcome, 1),
	}
}

// Trigger moves Idle or Displaying to Loading and starts a lookup for city.
// It returns ErrBusy while Loading and ErrBlankCity for an empty city; the
// state is unchanged in both cases.
func (m *Model) Trigger(city string) error {
	// The model outlives the caller's request; keep a private copy.
	city = strings.Clone(strings.TrimSpace(city))
	if err := validate.Var(city, "required"); err != nil {
		return ErrBlankCity
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateLoading {
		return ErrBusy
	}

	m.state = StateLoading
	m.city = city
	m.requestID = uuid.NewString()

	ctx, results, requestID := m.baseCtx, m.results, m.requestID
	m.log.Debug("window: lookup dispatched", "request_id", requestID, "city", city)

	go func() {
		results <- m.svc.Lookup(ctx, city)
	}()
	return nil
}

// Tick polls for a finished lookup once, without blocking, and returns the
// current view. View.Refresh asks the caller to tick again.
func (m *Model) Tick() View {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateLoading {
		select {
		case out := <-m.results:
			m.outcome = out
			m.state = StateDisplaying
			m.log.Debug("window: lookup received", "request_id", m.requestID, "ok", out.OK())
		default:
		}
	}

	return m.viewLocked()
}

// State returns the current state without polling.
func (m *Model) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// View is what one frame of the window shows.
type View struct {
	State   State
	City    string
	Loading bool
	// Refresh is set while a lookup is outstanding.
	Refresh bool

	Heading string
	Fields  []weather.Field
	Error   string
}

func (m *Model) viewLocked() View {
	v := View{
		State:   m.state,
		City:    m.city,
		Loading: m.state == StateLoading,
		Refresh: m.state == StateLoading,
	}

	if m.state != StateDisplaying {
		return v
	}

	rec, err := m.outcome.Result()
	if err != nil {
		v.Error = err.Error()
		return v
	}
	v.Heading = weather.Heading(rec)
	v.Fields = weather.Fields(rec)
	return v
}
