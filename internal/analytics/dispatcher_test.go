package analytics

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Fetch(ctx context.Context) ([]Record, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Record), args.Error(1)
}

func TestDispatcher_CallsBoundFetcherOnce(t *testing.T) {
	ctx := context.Background()
	best := new(mockFetcher)
	other := new(mockFetcher)
	want := []Record{{"product_name": "Kite"}}
	best.On("Fetch", ctx).Return(want, nil).Once()

	d := NewDispatcher(map[QueryID]Fetcher{
		BestValueProducts:  best,
		TopRatedByCategory: other,
	})
	got, err := d.Dispatch(ctx, BestValueProducts)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	best.AssertExpectations(t)
	other.AssertNotCalled(t, "Fetch", mock.Anything)
}

func TestDispatcher_PropagatesError(t *testing.T) {
	ctx := context.Background()
	f := new(mockFetcher)
	boom := errors.New("boom")
	f.On("Fetch", ctx).Return(nil, boom)

	d := NewDispatcher(map[QueryID]Fetcher{RatingVariance: f})
	got, err := d.Dispatch(ctx, RatingVariance)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, boom)
}

func TestDispatcher_EmptyIsNotAnError(t *testing.T) {
	d := NewDispatcher(map[QueryID]Fetcher{
		SentimentByCategory: FetcherFunc(func(context.Context) ([]Record, error) { return []Record{}, nil }),
	})
	got, err := d.Dispatch(context.Background(), SentimentByCategory)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, NoDataMessage, Format(SentimentByCategory, got))
}

func TestDispatcher_UnknownQuery(t *testing.T) {
	d := NewDispatcher(map[QueryID]Fetcher{
		0: FetcherFunc(func(context.Context) ([]Record, error) { return nil, nil }),
		9: FetcherFunc(func(context.Context) ([]Record, error) { return nil, nil }),
		3: nil,
	})
	for _, id := range []QueryID{0, 3, 9} {
		_, err := d.Dispatch(context.Background(), id)
		assert.ErrorIs(t, err, ErrUnknownQuery)
	}
}
