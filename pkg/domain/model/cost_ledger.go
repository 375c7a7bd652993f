package model

import "time"

// CostLedgerEntry is one audit row of provider usage
type CostLedgerEntry struct {
	ID               int64     `json:"id"`
	App              string    `json:"app"`
	RequestID        string    `json:"request_id"`
	Provider         string    `json:"provider"`
	Model            string    `json:"model"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	USD              float64   `json:"usd"`
	CreatedAt        time.Time `json:"created_at"`
}
