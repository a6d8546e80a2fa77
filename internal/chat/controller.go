package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"deals-chat-backend/internal/analytics"
	"deals-chat-backend/internal/backend"
)

var (
	ErrEmptyMessage = errors.New("message is required")
	ErrBusy         = errors.New("a previous message is still being answered")
)

const searchResultLimit = 5

// Dispatcher runs one analytics query.
type Dispatcher interface {
	Dispatch(ctx context.Context, id analytics.QueryID) ([]analytics.Record, error)
}

// Catalog is the product side of the storefront backend.
type Catalog interface {
	SearchProducts(ctx context.Context, query string) ([]backend.Product, error)
	GetProduct(ctx context.Context, productID string) (*backend.Product, error)
}

// DispatchEvent describes one analytics dispatch for auditing.
type DispatchEvent struct {
	SessionID string
	Query     analytics.QueryID
	Outcome   string // ok | empty | error
	Records   int
	Duration  time.Duration
	Error     string
	At        time.Time
}

// AuditSink receives dispatch events. Failures are logged, never surfaced.
type AuditSink interface {
	RecordDispatch(ctx context.Context, ev DispatchEvent) error
}

// Controller owns the reply logic of the widget.
type Controller struct {
	dispatcher  Dispatcher
	catalog     Catalog
	assistant   Assistant
	audit       AuditSink
	backendPort string
}

type Option func(*Controller)

func WithAssistant(a Assistant) Option { return func(c *Controller) { c.assistant = a } }

func WithAudit(a AuditSink) Option { return func(c *Controller) { c.audit = a } }

// WithBackendPort sets the port named in the fallback connection error.
func WithBackendPort(port string) Option { return func(c *Controller) { c.backendPort = port } }

func NewController(dispatcher Dispatcher, catalog Catalog, opts ...Option) *Controller {
	c := &Controller{
		dispatcher:  dispatcher,
		catalog:     catalog,
		assistant:   StaticAssistant{},
		backendPort: "5001",
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Send handles one user submission and returns the entries it left in the
// log: the user message followed by exactly one bot reply.
func (c *Controller) Send(ctx context.Context, s *Session, text string) ([]Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}
	if !s.begin() {
		return nil, ErrBusy
	}
	defer s.end()

	user := s.append(SenderUser, text)
	return []Message{user, c.respond(ctx, s, text)}, nil
}

func (c *Controller) respond(ctx context.Context, s *Session, text string) Message {
	if id, ok := analytics.DetectQuery(text); ok {
		return c.runQuery(ctx, s, id)
	}
	product := s.Product()
	if product == nil {
		return s.append(SenderBot, c.searchReply(ctx, text))
	}
	reply, err := c.assistant.Reply(ctx, text, product)
	if err != nil || strings.TrimSpace(reply) == "" {
		reply = HelpText(product)
	}
	return s.append(SenderBot, reply)
}

// runQuery shows the placeholder while the fetch is outstanding and swaps it
// for the report or the error text once it settles.
func (c *Controller) runQuery(ctx context.Context, s *Session, id analytics.QueryID) Message {
	placeholder := s.append(SenderBot, PlaceholderText)
	start := time.Now()
	records, err := c.dispatcher.Dispatch(ctx, id)
	elapsed := time.Since(start)

	var text string
	if err != nil {
		log.Printf("[chat] session %s query %d failed: %v", s.ID(), int(id), err)
		text = c.errorText(err)
	} else {
		text = analytics.Format(id, records)
	}
	reply := s.replace(placeholder.ID, text)
	c.record(ctx, s.ID(), id, records, err, elapsed)
	return reply
}

func (c *Controller) errorText(err error) string {
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		msg = fmt.Sprintf("Cannot connect to server. Make sure the backend is running on port %s.", c.backendPort)
	}
	return "Sorry, I couldn't fetch that data: " + msg
}

func (c *Controller) searchReply(ctx context.Context, text string) string {
	q := strings.TrimSpace(text)
	products, err := c.catalog.SearchProducts(ctx, q)
	if err != nil {
		log.Printf("[chat] product search %q failed: %v", q, err)
		return "Sorry, product search failed: " + err.Error()
	}
	if len(products) == 0 {
		return fmt.Sprintf("I couldn't find any products matching %q. Try other words, or type a number from 1 to 8 for store insights.", q)
	}

	n := len(products)
	if n > searchResultLimit {
		n = searchResultLimit
	}
	var b strings.Builder
	fmt.Fprintf(&b, "I found %d product(s) matching %q:", len(products), q)
	for i, p := range products[:n] {
		fmt.Fprintf(&b, "\n%d. %s - $%s", i+1, analytics.TruncateName(p.Name), analytics.ToFixed(float64(p.DiscountedPrice), 2))
		if p.ReviewCount > 0 {
			fmt.Fprintf(&b, " (%s stars)", analytics.ToFixed(float64(p.AvgRating), 1))
		}
	}
	if len(products) > n {
		fmt.Fprintf(&b, "\n...and %d more.", len(products)-n)
	}
	return b.String()
}

func (c *Controller) record(ctx context.Context, sessionID string, id analytics.QueryID, records []analytics.Record, err error, elapsed time.Duration) {
	if c.audit == nil {
		return
	}
	ev := DispatchEvent{
		SessionID: sessionID,
		Query:     id,
		Outcome:   "ok",
		Records:   len(records),
		Duration:  elapsed,
		At:        time.Now().UTC(),
	}
	switch {
	case err != nil:
		ev.Outcome = "error"
		ev.Error = err.Error()
	case len(records) == 0:
		ev.Outcome = "empty"
	}
	if aerr := c.audit.RecordDispatch(ctx, ev); aerr != nil {
		log.Printf("[audit] record dispatch failed: %v", aerr)
	}
}

// FocusProduct looks a product up and makes it the session's product context.
func (c *Controller) FocusProduct(ctx context.Context, s *Session, productID string) (*backend.Product, error) {
	p, err := c.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	s.SetProduct(p)
	return p, nil
}
