package webserver

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaharia-lab/cypherchat/internal/api"
	"github.com/shaharia-lab/cypherchat/internal/metrics"
)

// Responder produces the assistant reply for a prompt
type Responder func(ctx context.Context, req api.ChatRequest) (string, error)

// HistoryEntry is one stored exchange, in the shape the backend returns from /api/chat
type HistoryEntry struct {
	ID          string    `json:"id"`
	Prompt      string    `json:"prompt"`
	Response    string    `json:"response"`
	Timestamp   string    `json:"timestamp"`
	Duration    float64   `json:"duration"`
	Usage       api.Usage `json:"usage"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	TopP        float64   `json:"top_p"`
}

// Backend holds the stand-in's conversation, gallery, health and metrics
type Backend struct {
	mu        sync.Mutex
	respond   Responder
	examples  []api.Example
	health    string
	history   []HistoryEntry
	requests  []api.ChatRequest
	clears    int
	active    int
	summary   metrics.Update
	totalTime float64
	now       func() time.Time
}

// NewBackend creates a healthy backend answering with responder. A nil responder uses CannedResponder.
func NewBackend(responder Responder) *Backend {
	if responder == nil {
		responder = CannedResponder
	}
	return &Backend{
		respond:  responder,
		examples: DefaultExamples(),
		health:   "healthy",
		now:      time.Now,
	}
}

// DefaultExamples returns the prompt gallery served at /api/examples
func DefaultExamples() []api.Example {
	return []api.Example{
		{Title: "Find Person by Name", Category: "Basic", Prompt: "Generate a Cypher query to find all Person nodes with name 'John'"},
		{Title: "Actor Movies", Category: "Relationships", Prompt: "Create a Cypher query to find all movies that an actor named 'Tom Hanks' has acted in"},
		{Title: "User Preferences", Category: "Complex", Prompt: "Write a Cypher query to find users who have similar preferences to a given user"},
		{Title: "Movie Recommendations", Category: "Complex", Prompt: "Generate a Cypher query to recommend movies based on user ratings and genres"},
		{Title: "Social Network", Category: "Relationships", Prompt: "Create a query to find friends of friends in a social network"},
		{Title: "Product Categories", Category: "Basic", Prompt: "Write a Cypher query to find all products in a specific category with their prices"},
	}
}

// CannedResponder answers every prompt with a fixed Cypher query
func CannedResponder(_ context.Context, req api.ChatRequest) (string, error) {
	return fmt.Sprintf("Here is a query for: %s\n```cypher\nMATCH (n)\nRETURN n\nLIMIT %d\n```", req.Prompt, 25), nil
}

// SetHealth sets the status reported by /api/health and in metrics
func (b *Backend) SetHealth(status string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.health = status
}

// SetExamples replaces the prompt gallery
func (b *Backend) SetExamples(examples []api.Example) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.examples = examples
}

// SetResponder replaces the reply generator
func (b *Backend) SetResponder(r Responder) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.respond = r
}

// Requests returns every chat request received so far
func (b *Backend) Requests() []api.ChatRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]api.ChatRequest(nil), b.requests...)
}

// Clears returns how many times the history was cleared
func (b *Backend) Clears() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.clears
}

// History returns the stored exchanges
func (b *Backend) History() []HistoryEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]HistoryEntry{}, b.history...)
}

func (b *Backend) healthStatus() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.health
}

func (b *Backend) exampleList() []api.Example {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]api.Example{}, b.examples...)
}

func (b *Backend) clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.history = nil
	b.clears++
}

// chat runs the responder and records the exchange and its metrics
func (b *Backend) chat(ctx context.Context, req api.ChatRequest) (HistoryEntry, error) {
	b.mu.Lock()
	b.requests = append(b.requests, req)
	b.active++
	respond := b.respond
	b.mu.Unlock()

	start := b.now()
	reply, err := respond(ctx, req)
	duration := b.now().Sub(start).Seconds()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.active--
	if err != nil {
		return HistoryEntry{}, err
	}

	tokens := len(strings.Fields(reply))
	entry := HistoryEntry{
		ID:          uuid.NewString(),
		Prompt:      req.Prompt,
		Response:    reply,
		Timestamp:   start.UTC().Format(time.RFC3339Nano),
		Duration:    duration,
		Usage:       api.Usage{CompletionTokens: tokens},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
	}
	b.history = append(b.history, entry)

	b.summary.RequestsTotal++
	b.summary.TokensGeneratedTotal += float64(tokens)
	b.totalTime += duration
	b.summary.GenerationDurationAvg = b.totalTime / b.summary.RequestsTotal
	if b.totalTime > 0 {
		b.summary.AvgTokensPerSecond = b.summary.TokensGeneratedTotal / b.totalTime
	}

	return entry, nil
}

// Metrics returns the current metrics summary
func (b *Backend) Metrics() metrics.Update {
	b.mu.Lock()
	defer b.mu.Unlock()
	u := b.summary
	u.HealthStatus = b.health
	u.ActiveRequests = float64(b.active)
	u.Timestamp = b.now().UTC().Format(time.RFC3339)
	return u
}
