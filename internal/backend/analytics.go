package backend

import (
	"context"

	"deals-chat-backend/internal/analytics"
)

// Fetchers binds every analytics query to its backend endpoint.
func (c *Client) Fetchers() map[analytics.QueryID]analytics.Fetcher {
	queries := analytics.Queries()
	out := make(map[analytics.QueryID]analytics.Fetcher, len(queries))
	for _, q := range queries {
		q := q
		out[q.ID] = analytics.FetcherFunc(func(ctx context.Context) ([]analytics.Record, error) {
			return c.fetchRecords(ctx, q)
		})
	}
	return out
}

func (c *Client) fetchRecords(ctx context.Context, q analytics.Query) ([]analytics.Record, error) {
	var out []analytics.Record
	if err := c.getJSON(ctx, q.Label, q.Path, &out); err != nil {
		return nil, err
	}
	return out, nil
}
