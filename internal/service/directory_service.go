package service

import (
	"context"
	"strings"

	"github.com/boon-market/support-router/internal/domain"
	"github.com/boon-market/support-router/internal/repository"
	"github.com/boon-market/support-router/pkg/util/errorutil"
)

// DirectoryService resolves external identities to business-system
// accounts. It is a pure read path plus the idempotent chat-id link; no
// account is ever created here, and a missing match is an expected guest
// outcome rather than an error.
type DirectoryService struct {
	accounts repository.AccountRepository
}

// NewDirectoryService constructs the service.
func NewDirectoryService(accounts repository.AccountRepository) *DirectoryService {
	return &DirectoryService{accounts: accounts}
}

// NormalizePhone validates a phone as digits with an optional leading '+'
// and strips the '+'. Malformed input fails before any storage access.
func NormalizePhone(phone string) (string, error) {
	trimmed := strings.TrimPrefix(phone, "+")
	if trimmed == "" {
		return "", errorutil.NewValidationError("invalid phone format", map[string]any{"phone": phone})
	}
	for _, r := range trimmed {
		if r < '0' || r > '9' {
			return "", errorutil.NewValidationError("invalid phone format", map[string]any{"phone": phone})
		}
	}
	return trimmed, nil
}

// redactPhone keeps only the last digits for log output.
func redactPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}

// FindByPhone validates and normalizes the phone, then looks up the
// account. Returns (nil, nil) when no account matches.
func (s *DirectoryService) FindByPhone(ctx context.Context, phone string) (*domain.Account, error) {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	return s.accounts.FindByPhone(ctx, normalized)
}

// FindByChatID resolves a conversation identity to an account, if linked.
func (s *DirectoryService) FindByChatID(ctx context.Context, chatID int64) (*domain.Account, error) {
	return s.accounts.FindByChatID(ctx, chatID)
}

// LinkChatID records the conversation identity on the account unless it is
// already current. Repeated calls with the same arguments are no-ops.
func (s *DirectoryService) LinkChatID(ctx context.Context, account *domain.Account, chatID int64) error {
	if account.ChatID != nil && *account.ChatID == chatID {
		return nil
	}
	return s.accounts.LinkChatID(ctx, account.ID, chatID)
}
