package finder

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/dealradar/dealradar/pkg/deal"
)

// Status is the user-visible phase of a search.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusError   Status = "error"
	StatusEmpty   Status = "empty"
	StatusLoaded  Status = "loaded"
)

// State is the explicit UI state: what a renderer needs and nothing else.
// Transitions happen only through Reduce.
type State struct {
	Status       Status
	Generation   uint64
	LocationName string
	Deals        []deal.Deal
	ErrorMessage string
}

// Event is a state transition input. Every event carries the generation of
// the search that produced it; events from superseded searches are discarded,
// so a slow stale response can never overwrite a newer result.
type Event interface {
	generation() uint64
}

// SearchStarted begins a new search generation.
type SearchStarted struct {
	Generation   uint64
	LocationName string
}

// SearchFailed reports a search error with its user-visible message.
type SearchFailed struct {
	Generation uint64
	Message    string
}

// DealsLoaded delivers a search result.
type DealsLoaded struct {
	Generation uint64
	Deals      []deal.Deal
}

func (e SearchStarted) generation() uint64 { return e.Generation }
func (e SearchFailed) generation() uint64  { return e.Generation }
func (e DealsLoaded) generation() uint64   { return e.Generation }

// Reduce applies one event to a state. It is pure: same inputs, same output,
// no I/O. Stale events (generation older than the state's) leave the state
// untouched. Failures keep the prior deal list so the user does not lose
// results they were already looking at.
func Reduce(s State, e Event) State {
	if e.generation() < s.Generation {
		return s
	}

	switch ev := e.(type) {
	case SearchStarted:
		s.Generation = ev.Generation
		s.LocationName = ev.LocationName
		s.Status = StatusLoading
		s.ErrorMessage = ""

	case SearchFailed:
		s.Generation = ev.Generation
		s.Status = StatusError
		s.ErrorMessage = ev.Message

	case DealsLoaded:
		s.Generation = ev.Generation
		s.ErrorMessage = ""
		s.Deals = ev.Deals
		if len(ev.Deals) == 0 {
			s.Status = StatusEmpty
		} else {
			s.Status = StatusLoaded
		}
	}

	return s
}

// Session drives searches and owns the resulting state. Concurrent searches
// are safe: each gets a fresh generation and the reducer drops whichever
// responses arrive late.
type Session struct {
	client *Client

	mu    sync.Mutex
	state State
	gen   atomic.Uint64
}

// NewSession creates a session in the idle state.
func NewSession(client *Client) *Session {
	return &Session{
		client: client,
		state:  State{Status: StatusIdle},
	}
}

// State returns a snapshot of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Search runs the full pipeline for a place name and returns the state after
// the search settles. The returned state may belong to a newer search if one
// was started concurrently.
func (s *Session) Search(ctx context.Context, locationName string, criteria deal.FilterCriteria) State {
	gen := s.gen.Add(1)
	s.apply(SearchStarted{Generation: gen, LocationName: locationName})

	found, err := s.client.Search(ctx, locationName, criteria)
	if err != nil {
		s.apply(SearchFailed{Generation: gen, Message: userMessage(err)})
	} else {
		s.apply(DealsLoaded{Generation: gen, Deals: found})
	}

	return s.State()
}

func (s *Session) apply(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, e)
}

// userMessage maps pipeline errors to the single message shown to the user.
// All recovery is user-initiated; nothing here retries.
func userMessage(err error) string {
	switch {
	case errors.Is(err, ErrLocationNotFound):
		return "Location not found. Check the spelling and try again."
	case errors.Is(err, ErrGeocodingUnavailable):
		return "Could not look up that location. Please try again."
	case errors.Is(err, ErrScrapeTimeout):
		return "Finding fresh deals took too long. Please try again."
	case errors.Is(err, ErrScrapeFailed):
		return "Could not refresh deals for that area. Please try again."
	case errors.Is(err, ErrFetchFailed):
		return "Failed to fetch deals. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}
