package firestore

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/echonotes/pkg/domain/model"
)

type reflectionEventRepository struct {
	f *Firestore
}

func (r *reflectionEventRepository) Put(ctx context.Context, event *model.ReflectionEvent) error {
	if event == nil {
		return goerr.New("reflection event is required")
	}

	id, err := r.f.nextID(ctx, reflectionEventCounterDoc)
	if err != nil {
		return err
	}

	stored := *event
	stored.ID = id
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = r.f.now()
	}

	ref := r.f.client.Collection(r.f.collection(reflectionEventsCollection)).Doc(fmt.Sprintf("%d", id))
	if _, err := ref.Set(ctx, &stored); err != nil {
		return goerr.Wrap(err, "failed to put reflection event")
	}

	event.ID = id
	return nil
}
