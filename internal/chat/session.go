package chat

import (
	"fmt"
	"strings"
	"sync"

	"deals-chat-backend/internal/analytics"
	"deals-chat-backend/internal/backend"
)

type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is one entry of the widget log. IDs increase monotonically within a
// session and are never reused.
type Message struct {
	ID     int64  `json:"id"`
	Text   string `json:"text"`
	Sender Sender `json:"sender"`
}

const (
	WelcomeText     = "Hi! Welcome to DS5110 Holiday Deals! How can I help you today?"
	PlaceholderText = "Analyzing data..."
)

// Session is the state of one mounted chat widget. The log is append-only; the
// single exception is the "Analyzing data..." placeholder, which is swapped
// for its result in one step.
type Session struct {
	mu       sync.Mutex
	id       string
	open     bool
	messages []Message
	nextID   int64
	product  *backend.Product
	busy     bool
}

// NewSession creates a closed widget holding the greeting pair.
func NewSession(id string) *Session {
	s := &Session{id: id, nextID: 1}
	s.appendLocked(SenderBot, WelcomeText)
	s.appendLocked(SenderBot, MenuText())
	return s
}

// MenuText lists the analytics queries the bot understands.
func MenuText() string {
	var b strings.Builder
	b.WriteString("I can answer these questions about our products. Type a number or ask in your own words:")
	for _, q := range analytics.Queries() {
		fmt.Fprintf(&b, "\n%d. %s", int(q.ID), q.Label)
	}
	return b.String()
}

func (s *Session) ID() string { return s.id }

func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *Session) Open() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = true
}

func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
}

// Toggle flips the widget and returns the new state.
func (s *Session) Toggle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = !s.open
	return s.open
}

// Messages returns a copy of the log.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

// Product is the product page the widget is mounted on, if any.
func (s *Session) Product() *backend.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.product == nil {
		return nil
	}
	p := *s.product
	return &p
}

func (s *Session) SetProduct(p *backend.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p == nil {
		s.product = nil
		return
	}
	cp := *p
	s.product = &cp
}

func (s *Session) ClearProduct() { s.SetProduct(nil) }

func (s *Session) append(sender Sender, text string) Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(sender, text)
}

func (s *Session) appendLocked(sender Sender, text string) Message {
	m := Message{ID: s.nextID, Text: text, Sender: sender}
	s.nextID++
	s.messages = append(s.messages, m)
	return m
}

// replace removes the entry with the given ID and appends a new bot message
// under the same lock, so no reader sees both or neither.
func (s *Session) replace(id int64, text string) Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.messages {
		if m.ID == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			break
		}
	}
	return s.appendLocked(SenderBot, text)
}

// begin marks a submission in flight; false means one is already running.
func (s *Session) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return false
	}
	s.busy = true
	return true
}

func (s *Session) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
}
