package interfaces

import (
	"golang.org/x/net/context"

	"github.com/inboxpilot/mailsync/dto"
)

type CompletionService interface {
	GenerateText(ctx context.Context, request dto.CompletionRequest) (string, error)
}
