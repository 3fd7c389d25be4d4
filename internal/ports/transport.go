package ports

import (
	"context"

	"github.com/bft-labs/mailship/internal/domain"
)

// MailTransport delivers rendered messages.
// Implementations handle serialization, authentication and attachments.
type MailTransport interface {
	// Send delivers msg to msg.To and returns a transport message id.
	// Returns nil error only once delivery is confirmed.
	Send(ctx context.Context, msg domain.Message) (string, error)
}
