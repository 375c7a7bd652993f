package sqldb

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/echonotes/pkg/domain/model"
)

type costLedgerRow struct {
	ID               int64   `db:"id"`
	App              string  `db:"app"`
	RequestID        string  `db:"request_id"`
	Provider         string  `db:"provider"`
	Model            string  `db:"model"`
	PromptTokens     int     `db:"prompt_tokens"`
	CompletionTokens int     `db:"completion_tokens"`
	USD              float64 `db:"usd"`
	CreatedAt        string  `db:"created_at"`
}

type costLedgerRepository struct {
	d *DB
}

func (r *costLedgerRepository) Put(ctx context.Context, entry *model.CostLedgerEntry) error {
	if entry == nil {
		return goerr.New("cost ledger entry is required")
	}

	created := entry.CreatedAt
	if created.IsZero() {
		created = r.d.now()
	}

	query := r.d.db.Rebind(`INSERT INTO cost_ledger
		(app, request_id, provider, model, prompt_tokens, completion_tokens, usd, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)

	var id int64
	if err := r.d.db.QueryRowxContext(ctx, query,
		entry.App, entry.RequestID, entry.Provider, entry.Model,
		entry.PromptTokens, entry.CompletionTokens, entry.USD, formatTime(created),
	).Scan(&id); err != nil {
		return goerr.Wrap(err, "failed to insert cost ledger entry", goerr.V("request_id", entry.RequestID))
	}

	entry.ID = id
	entry.CreatedAt = created
	return nil
}

func (r *costLedgerRepository) ListByRequestID(ctx context.Context, requestID string) ([]*model.CostLedgerEntry, error) {
	var rows []costLedgerRow
	query := r.d.db.Rebind(`SELECT id, app, request_id, provider, model, prompt_tokens, completion_tokens, usd, created_at
		FROM cost_ledger WHERE request_id = ? ORDER BY id`)
	if err := r.d.db.SelectContext(ctx, &rows, query, requestID); err != nil {
		return nil, goerr.Wrap(err, "failed to list cost ledger", goerr.V("request_id", requestID))
	}

	entries := make([]*model.CostLedgerEntry, 0, len(rows))
	for _, row := range rows {
		createdAt, err := parseTime(row.CreatedAt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, &model.CostLedgerEntry{
			ID:               row.ID,
			App:              row.App,
			RequestID:        row.RequestID,
			Provider:         row.Provider,
			Model:            row.Model,
			PromptTokens:     row.PromptTokens,
			CompletionTokens: row.CompletionTokens,
			USD:              row.USD,
			CreatedAt:        createdAt,
		})
	}
	return entries, nil
}
