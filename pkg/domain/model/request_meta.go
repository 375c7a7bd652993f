package model

import (
	"context"
	"math"
	"sync"
)

// Cost is an accumulated usage total
type Cost struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	USD              float64 `json:"usd"`
}

// Round8 rounds a USD amount to eight decimal places
func Round8(v float64) float64 {
	return math.Round(v*1e8) / 1e8
}

// RequestMeta collects warnings and cost for a single inbound request.
// Warnings are append-only and cost totals only grow. It is safe for concurrent use.
type RequestMeta struct {
	requestID string

	mu       sync.Mutex
	warnings []string
	cost     Cost
}

// NewRequestMeta creates an empty ledger for the given request ID
func NewRequestMeta(requestID string) *RequestMeta {
	return &RequestMeta{
		requestID: requestID,
		warnings:  []string{},
	}
}

// RequestID returns the request identifier
func (m *RequestMeta) RequestID() string {
	return m.requestID
}

// AddWarning appends a human-readable warning
func (m *RequestMeta) AddWarning(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warnings = append(m.warnings, msg)
}

// AddCost adds usage to the running totals. Negative values are ignored.
func (m *RequestMeta) AddCost(promptTokens, completionTokens int, usd float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if promptTokens > 0 {
		m.cost.PromptTokens += promptTokens
	}
	if completionTokens > 0 {
		m.cost.CompletionTokens += completionTokens
	}
	if usd > 0 {
		m.cost.USD = Round8(m.cost.USD + usd)
	}
}

// Warnings returns a copy of the collected warnings
func (m *RequestMeta) Warnings() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, len(m.warnings))
	copy(out, m.warnings)
	return out
}

// Cost returns the current totals
func (m *RequestMeta) Cost() Cost {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cost
}

// Snapshot returns the serializable view of the ledger
func (m *RequestMeta) Snapshot() RequestMetaSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	warnings := make([]string, len(m.warnings))
	copy(warnings, m.warnings)
	return RequestMetaSnapshot{
		RequestID: m.requestID,
		Cost:      m.cost,
		Warnings:  warnings,
	}
}

// RequestMetaSnapshot is the "meta" part of every response envelope
type RequestMetaSnapshot struct {
	RequestID string   `json:"request_id"`
	Cost      Cost     `json:"cost"`
	Warnings  []string `json:"warnings"`
}

type requestMetaKey struct{}

// ContextWithRequestMeta attaches a request ledger to ctx
func ContextWithRequestMeta(ctx context.Context, meta *RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext returns the ledger attached to ctx, or nil
func RequestMetaFromContext(ctx context.Context) *RequestMeta {
	meta, _ := ctx.Value(requestMetaKey{}).(*RequestMeta)
	return meta
}
