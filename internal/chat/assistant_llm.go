package chat

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"gopkg.in/yaml.v3"

	"deals-chat-backend/internal/analytics"
	"deals-chat-backend/internal/backend"
)

// AssistantPrompt is the YAML prompt file of the LLM assistant.
type AssistantPrompt struct {
	System string `yaml:"system"`
	Style  struct {
		Temperature float32 `yaml:"temperature"`
		MaxTokens   int     `yaml:"max_tokens"`
	} `yaml:"style"`
}

// ChatCompleter is the subset of the OpenAI client the assistant needs.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// LLMAssistant answers product-page questions with an OpenAI model and falls
// back to HelpText when the model is unavailable.
type LLMAssistant struct {
	prompt AssistantPrompt
	client ChatCompleter
	model  string
}

func LoadAssistantPrompt(path string) (AssistantPrompt, error) {
	var p AssistantPrompt
	b, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}
	if err := yaml.Unmarshal(b, &p); err != nil {
		return p, fmt.Errorf("parse %s: %w", path, err)
	}
	return p, nil
}

func NewLLMAssistant(prompt AssistantPrompt, client ChatCompleter, model string) *LLMAssistant {
	return &LLMAssistant{prompt: prompt, client: client, model: model}
}

func (a *LLMAssistant) Reply(ctx context.Context, message string, product *backend.Product) (string, error) {
	if a == nil || a.client == nil {
		return HelpText(product), nil
	}
	temp := a.prompt.Style.Temperature
	if temp <= 0 {
		temp = 0.3
	}
	maxTok := a.prompt.Style.MaxTokens
	if maxTok <= 0 {
		maxTok = 300
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Temperature: temp,
		MaxTokens:   maxTok,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: a.systemPrompt(product)},
			{Role: openai.ChatMessageRoleUser, Content: strings.TrimSpace(message)},
		},
	})
	if err != nil {
		log.Printf("[assistant] completion failed: %v", err)
		return HelpText(product), nil
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return HelpText(product), nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (a *LLMAssistant) systemPrompt(product *backend.Product) string {
	var b strings.Builder
	b.WriteString(a.prompt.System)
	b.WriteString("\n\nAnalytics menu (the user can type the number):\n")
	for _, q := range analytics.Queries() {
		fmt.Fprintf(&b, "%d. %s\n", int(q.ID), q.Label)
	}
	if product != nil {
		b.WriteString("\nCurrent product:\n")
		fmt.Fprintf(&b, "Name: %s\n", product.Name)
		fmt.Fprintf(&b, "Category: %s\n", product.Category)
		fmt.Fprintf(&b, "Price: $%s (was $%s, %s%% off)\n",
			analytics.ToFixed(float64(product.DiscountedPrice), 2),
			analytics.ToFixed(float64(product.ActualPrice), 2),
			analytics.ToFixed(float64(product.DiscountPercentage), 0))
		fmt.Fprintf(&b, "Rating: %s stars from %d reviews\n", analytics.ToFixed(float64(product.AvgRating), 1), int64(product.ReviewCount))
		if about := strings.TrimSpace(product.About); about != "" {
			fmt.Fprintf(&b, "About: %s\n", about)
		}
	}
	return b.String()
}
