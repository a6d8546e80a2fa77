package types

import "deals-chat-backend/internal/chat"

type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse carries the entries a submission added to the log.
type ChatResponse struct {
	SessionID string         `json:"sessionId"`
	Messages  []chat.Message `json:"messages"`
}

// MessagesResponse is the full widget state of one session.
type MessagesResponse struct {
	SessionID string          `json:"sessionId"`
	Open      bool            `json:"open"`
	Messages  []chat.Message  `json:"messages"`
	Product   *ProductContext `json:"product,omitempty"`
}

type ProductContext struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
}

type ContextRequest struct {
	ProductID string `json:"productId"`
}

type QueriesResponse struct {
	Queries []QueryInfo `json:"queries"`
}

type QueryInfo struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
	Title string `json:"title"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
	Database string `json:"database,omitempty"`
}
