package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"deals-chat-backend/internal/analytics"
	"deals-chat-backend/internal/backend"
)

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) SearchProducts(ctx context.Context, query string) ([]backend.Product, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]backend.Product), args.Error(1)
}

func (m *mockCatalog) GetProduct(ctx context.Context, productID string) (*backend.Product, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*backend.Product), args.Error(1)
}

type recordingAudit struct {
	events []DispatchEvent
	err    error
}

func (r *recordingAudit) RecordDispatch(_ context.Context, ev DispatchEvent) error {
	r.events = append(r.events, ev)
	return r.err
}

type staticFetch struct {
	records []analytics.Record
	err     error
	during  func()
}

func (f staticFetch) Fetch(context.Context) ([]analytics.Record, error) {
	if f.during != nil {
		f.during()
	}
	return f.records, f.err
}

func dispatcherWith(id analytics.QueryID, f analytics.Fetcher) *analytics.Dispatcher {
	return analytics.NewDispatcher(map[analytics.QueryID]analytics.Fetcher{id: f})
}

func hasID(msgs []Message, id int64) bool {
	for _, m := range msgs {
		if m.ID == id {
			return true
		}
	}
	return false
}

func TestNewSession_Greeting(t *testing.T) {
	s := NewSession("abc")
	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, Message{ID: 1, Text: WelcomeText, Sender: SenderBot}, msgs[0])
	assert.Equal(t, SenderBot, msgs[1].Sender)
	assert.Contains(t, msgs[1].Text, "1. Top-rated products by category")
	assert.Contains(t, msgs[1].Text, "8. Sentiment vs rating comparison")
	assert.False(t, s.IsOpen())
	assert.Equal(t, "abc", s.ID())
}

func TestSession_OpenCloseToggle(t *testing.T) {
	s := NewSession("x")
	s.Open()
	assert.True(t, s.IsOpen())
	s.Close()
	assert.False(t, s.IsOpen())
	assert.True(t, s.Toggle())
	assert.False(t, s.Toggle())
}

func TestSend_AnalyticsQuery(t *testing.T) {
	s := NewSession("s1")
	var placeholderID int64
	fetch := staticFetch{
		records: []analytics.Record{{"product_name": "A B C D E F G", "discounted_price": 9.5, "avg_rating": 4.567, "review_count": 10}},
		during: func() {
			msgs := s.Messages()
			last := msgs[len(msgs)-1]
			assert.Equal(t, PlaceholderText, last.Text)
			assert.Equal(t, SenderBot, last.Sender)
			placeholderID = last.ID
		},
	}
	audit := &recordingAudit{}
	c := NewController(dispatcherWith(analytics.BestValueProducts, fetch), new(mockCatalog), WithAudit(audit))

	added, err := c.Send(context.Background(), s, "  3 ")
	require.NoError(t, err)
	require.Len(t, added, 2)
	assert.Equal(t, Message{ID: 3, Text: "  3 ", Sender: SenderUser}, added[0])
	assert.Equal(t, SenderBot, added[1].Sender)
	assert.True(t, strings.HasPrefix(added[1].Text, "Best Value Products (High Rating + Low Price):\n1. A B C D E ..."))

	msgs := s.Messages()
	require.NotZero(t, placeholderID)
	assert.False(t, hasID(msgs, placeholderID))
	require.Len(t, msgs, 4)
	assert.Equal(t, added[1], msgs[3])
	assert.Greater(t, msgs[3].ID, placeholderID)

	require.Len(t, audit.events, 1)
	assert.Equal(t, "s1", audit.events[0].SessionID)
	assert.Equal(t, analytics.BestValueProducts, audit.events[0].Query)
	assert.Equal(t, "ok", audit.events[0].Outcome)
	assert.Equal(t, 1, audit.events[0].Records)
}

func TestSend_EmptyResult(t *testing.T) {
	s := NewSession("s1")
	audit := &recordingAudit{err: errors.New("db down")}
	c := NewController(dispatcherWith(analytics.RatingVariance, staticFetch{}), new(mockCatalog), WithAudit(audit))

	added, err := c.Send(context.Background(), s, "how consistent are ratings")
	require.NoError(t, err)
	assert.Equal(t, analytics.NoDataMessage, added[1].Text)
	require.Len(t, audit.events, 1)
	assert.Equal(t, "empty", audit.events[0].Outcome)
}

func TestSend_FetchError(t *testing.T) {
	s := NewSession("s1")
	var placeholderID int64
	fetch := staticFetch{
		err: errors.New("cannot connect to server: make sure the backend is running on port 5001"),
		during: func() {
			msgs := s.Messages()
			placeholderID = msgs[len(msgs)-1].ID
		},
	}
	audit := &recordingAudit{}
	c := NewController(dispatcherWith(analytics.TopRatedByCategory, fetch), new(mockCatalog), WithAudit(audit))

	added, err := c.Send(context.Background(), s, "1")
	require.NoError(t, err)
	assert.Equal(t, "Sorry, I couldn't fetch that data: cannot connect to server: make sure the backend is running on port 5001", added[1].Text)

	msgs := s.Messages()
	assert.False(t, hasID(msgs, placeholderID))
	assert.Len(t, msgs, 4)
	require.Len(t, audit.events, 1)
	assert.Equal(t, "error", audit.events[0].Outcome)
	assert.NotEmpty(t, audit.events[0].Error)
}

func TestSend_FetchErrorWithoutMessage(t *testing.T) {
	s := NewSession("s1")
	c := NewController(dispatcherWith(analytics.TopRatedByCategory, staticFetch{err: errors.New("")}), new(mockCatalog), WithBackendPort("5050"))

	added, err := c.Send(context.Background(), s, "1")
	require.NoError(t, err)
	assert.Equal(t, "Sorry, I couldn't fetch that data: Cannot connect to server. Make sure the backend is running on port 5050.", added[1].Text)
}

func TestSend_UnboundQueryIsReportedAsError(t *testing.T) {
	s := NewSession("s1")
	c := NewController(analytics.NewDispatcher(nil), new(mockCatalog))

	added, err := c.Send(context.Background(), s, "variance")
	require.NoError(t, err)
	assert.Contains(t, added[1].Text, "unknown analytics query")
	assert.Len(t, s.Messages(), 4)
}

func TestSend_Empty(t *testing.T) {
	s := NewSession("s1")
	c := NewController(analytics.NewDispatcher(nil), new(mockCatalog))
	for _, in := range []string{"", "   ", "\n\t"} {
		_, err := c.Send(context.Background(), s, in)
		assert.ErrorIs(t, err, ErrEmptyMessage)
	}
	assert.Len(t, s.Messages(), 2)
}

func TestSend_BusyWhileFetching(t *testing.T) {
	s := NewSession("s1")
	var c *Controller
	var nestedErr error
	fetch := staticFetch{during: func() {
		_, nestedErr = c.Send(context.Background(), s, "2")
	}}
	c = NewController(dispatcherWith(analytics.SentimentByPriceRange, fetch), new(mockCatalog))

	_, err := c.Send(context.Background(), s, "2")
	require.NoError(t, err)
	assert.ErrorIs(t, nestedErr, ErrBusy)
	assert.Len(t, s.Messages(), 4)

	// The flag is released afterwards.
	_, err = c.Send(context.Background(), s, "2")
	assert.NoError(t, err)
}

func TestSend_ProductSearch(t *testing.T) {
	s := NewSession("s1")
	catalog := new(mockCatalog)
	products := make([]backend.Product, 0, 7)
	for i := 0; i < 7; i++ {
		products = append(products, backend.Product{ID: "p", Name: "Wireless Mouse Silent Click Ergonomic Design Black", DiscountedPrice: 12.5, AvgRating: 4.25, ReviewCount: 3})
	}
	catalog.On("SearchProducts", mock.Anything, "wireless mouse").Return(products, nil).Once()
	c := NewController(analytics.NewDispatcher(nil), catalog)

	added, err := c.Send(context.Background(), s, " wireless mouse ")
	require.NoError(t, err)
	text := added[1].Text
	assert.True(t, strings.HasPrefix(text, `I found 7 product(s) matching "wireless mouse":`))
	assert.Contains(t, text, "\n1. Wireless Mouse Silent Click Ergonomic ... - $12.50 (4.3 stars)")
	assert.Contains(t, text, "\n5. ")
	assert.NotContains(t, text, "\n6. ")
	assert.True(t, strings.HasSuffix(text, "...and 2 more."))
	assert.NotContains(t, text, PlaceholderText)
	catalog.AssertExpectations(t)
}

func TestSend_ProductSearchNoResultsAndError(t *testing.T) {
	s := NewSession("s1")
	catalog := new(mockCatalog)
	catalog.On("SearchProducts", mock.Anything, "hello").Return([]backend.Product{}, nil).Once()
	catalog.On("SearchProducts", mock.Anything, "socks").Return(nil, errors.New("boom")).Once()
	c := NewController(analytics.NewDispatcher(nil), catalog)

	added, err := c.Send(context.Background(), s, "hello")
	require.NoError(t, err)
	assert.Contains(t, added[1].Text, `couldn't find any products matching "hello"`)

	added, err = c.Send(context.Background(), s, "socks")
	require.NoError(t, err)
	assert.Equal(t, "Sorry, product search failed: boom", added[1].Text)
	catalog.AssertExpectations(t)
}

type fixedAssistant struct {
	reply string
	err   error
	got   *backend.Product
}

func (f *fixedAssistant) Reply(_ context.Context, _ string, p *backend.Product) (string, error) {
	f.got = p
	return f.reply, f.err
}

func TestSend_ProductContextUsesAssistant(t *testing.T) {
	s := NewSession("s1")
	catalog := new(mockCatalog)
	product := &backend.Product{ID: "B07", Name: "Smart Watch", DiscountedPrice: 49.99, AvgRating: 4.1, ReviewCount: 20}
	catalog.On("GetProduct", mock.Anything, "B07").Return(product, nil).Once()
	assistant := &fixedAssistant{reply: "It has a great battery."}
	c := NewController(analytics.NewDispatcher(nil), catalog, WithAssistant(assistant))

	p, err := c.FocusProduct(context.Background(), s, "B07")
	require.NoError(t, err)
	assert.Equal(t, "Smart Watch", p.Name)

	added, err := c.Send(context.Background(), s, "is the battery good?")
	require.NoError(t, err)
	assert.Equal(t, "It has a great battery.", added[1].Text)
	require.NotNil(t, assistant.got)
	assert.Equal(t, "B07", assistant.got.ID)
	catalog.AssertNotCalled(t, "SearchProducts", mock.Anything, mock.Anything)

	assistant.err = errors.New("nope")
	added, err = c.Send(context.Background(), s, "what about the strap")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(added[1].Text, "You're looking at Smart Watch ($49.99, 4.1 stars from 20 reviews)."))

	s.ClearProduct()
	assert.Nil(t, s.Product())
}

func TestFocusProduct_Error(t *testing.T) {
	s := NewSession("s1")
	catalog := new(mockCatalog)
	catalog.On("GetProduct", mock.Anything, "zzz").Return(nil, backend.ErrNotFound)
	c := NewController(analytics.NewDispatcher(nil), catalog)

	_, err := c.FocusProduct(context.Background(), s, "zzz")
	assert.ErrorIs(t, err, backend.ErrNotFound)
	assert.Nil(t, s.Product())
}

func TestSend_IDsStrictlyIncrease(t *testing.T) {
	s := NewSession("s1")
	c := NewController(dispatcherWith(analytics.BestValueProducts, staticFetch{}), new(mockCatalog))
	for i := 0; i < 3; i++ {
		_, err := c.Send(context.Background(), s, "best value")
		require.NoError(t, err)
	}
	msgs := s.Messages()
	for i := 1; i < len(msgs); i++ {
		assert.Greater(t, msgs[i].ID, msgs[i-1].ID)
	}
	for _, m := range msgs {
		assert.NotEqual(t, PlaceholderText, m.Text)
	}
}

func TestDispatchEventDuration(t *testing.T) {
	s := NewSession("s1")
	audit := &recordingAudit{}
	fetch := staticFetch{during: func() { time.Sleep(2 * time.Millisecond) }}
	c := NewController(dispatcherWith(analytics.DiscountReviewQuality, fetch), new(mockCatalog), WithAudit(audit))
	_, err := c.Send(context.Background(), s, "6")
	require.NoError(t, err)
	require.Len(t, audit.events, 1)
	assert.GreaterOrEqual(t, audit.events[0].Duration, 2*time.Millisecond)
}
