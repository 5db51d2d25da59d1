package usecase

import (
	"context"

	"github.com/optira-energie/comparateur-api/internal/infra/queue"
)

// SessionStoreInterface is the durable funnel-session -> prospect mapping
// behind the creation guard. Claim is a compare-and-swap: it returns the
// prospect id that ends up owning the session, which is not necessarily
// the one passed in when another instance won the race.
type SessionStoreInterface interface {
	Find(ctx context.Context, sessionID string) (string, error)
	Claim(ctx context.Context, sessionID, prospectID string) (string, error)
	Release(ctx context.Context, sessionID string) error
}

type BlobStorageInterface interface {
	Upload(ctx context.Context, path string, content []byte, contentType string) (string, error)
	Delete(ctx context.Context, fileURL string) error
}

type QueueProducerInterface interface {
	PublishLeadSubmitted(ctx context.Context, payload queue.LeadSubmittedPayload) error
}
