package blob

import (
	"context"
	"errors"

	"github.com/inboxlab/message-dispatch/internal/model"
)

var ErrContentNotFound = errors.New("message content not found")

type ContentStore interface {
	StoreContent(ctx context.Context, messageID string, content model.MessageContent) error
	GetContent(ctx context.Context, messageID string) (*model.MessageContent, error)
}
