package analytics

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownQuery is returned when no fetcher is bound to a query.
var ErrUnknownQuery = errors.New("unknown analytics query")

// Record is one loosely typed row returned by the analytics backend.
type Record map[string]any

// Fetcher retrieves the records of a single analytics query.
type Fetcher interface {
	Fetch(ctx context.Context) ([]Record, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context) ([]Record, error)

func (f FetcherFunc) Fetch(ctx context.Context) ([]Record, error) { return f(ctx) }

// Dispatcher routes a query to the fetcher bound to it.
type Dispatcher struct {
	fetchers map[QueryID]Fetcher
}

func NewDispatcher(fetchers map[QueryID]Fetcher) *Dispatcher {
	table := make(map[QueryID]Fetcher, len(fetchers))
	for id, f := range fetchers {
		if id.Valid() && f != nil {
			table[id] = f
		}
	}
	return &Dispatcher{fetchers: table}
}

// Dispatch issues exactly one fetch for id and returns its result untouched.
// An empty result is not an error; the formatter renders it as "no data".
func (d *Dispatcher) Dispatch(ctx context.Context, id QueryID) ([]Record, error) {
	f, ok := d.fetchers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownQuery, int(id))
	}
	return f.Fetch(ctx)
}
