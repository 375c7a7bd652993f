package sqldb

import (
	"context"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/echonotes/pkg/domain/model"
)

type reflectionEventRepository struct {
	d *DB
}

func (r *reflectionEventRepository) Put(ctx context.Context, event *model.ReflectionEvent) error {
	if event == nil {
		return goerr.New("reflection event is required")
	}

	reflectionJSON, err := json.Marshal(event.Reflection)
	if err != nil {
		return goerr.Wrap(err, "failed to encode reflection")
	}
	internalJSON, err := json.Marshal(event.Internal)
	if err != nil {
		return goerr.Wrap(err, "failed to encode reflection internal metadata")
	}

	created := event.CreatedAt
	if created.IsZero() {
		created = r.d.now()
	}

	query := r.d.db.Rebind(`INSERT INTO reflection_events
		(transcript_text, reflection_json, reflection_internal_json, created_at)
		VALUES (?, ?, ?, ?) RETURNING id`)

	var id int64
	if err := r.d.db.QueryRowxContext(ctx, query,
		event.TranscriptText, string(reflectionJSON), string(internalJSON), formatTime(created),
	).Scan(&id); err != nil {
		return goerr.Wrap(err, "failed to insert reflection event")
	}

	event.ID = id
	return nil
}
