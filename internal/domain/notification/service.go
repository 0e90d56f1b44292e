package notification

import (
	"context"
	"log"
	"strconv"

	"finlink/internal/domain/account"
	"finlink/internal/shared/messages"
)

const (
	routeAccounts = "accounts"

	dataKeyRoute     = "route"
	dataKeyAccountID = "accountId"
	dataKeyCount     = "count"
)

// Service sends user-facing pushes for linking and sync events.
// A nil messenger turns every send into a logged no-op.
type Service struct {
	messenger Messenger
	texts     *messages.Messages
}

// NewService creates a new notification service
func NewService(messenger Messenger, texts *messages.Messages) *Service {
	if texts == nil {
		texts = messages.Default()
	}
	return &Service{messenger: messenger, texts: texts}
}

// SyncCompleted tells the owner how many transactions a sync imported.
func (s *Service) SyncCompleted(ctx context.Context, acc *account.Account, inserted int) {
	if acc == nil || inserted <= 0 {
		return
	}
	title, body := s.texts.SyncComplete.Render(map[string]string{
		"count":   strconv.Itoa(inserted),
		"account": acc.Name,
	})
	s.send(ctx, acc.UserID, title, body, map[string]string{
		dataKeyRoute:     routeAccounts,
		dataKeyAccountID: acc.ID,
		dataKeyCount:     strconv.Itoa(inserted),
	})
}

// AccountsLinked confirms a completed consent callback.
func (s *Service) AccountsLinked(ctx context.Context, userID int64, count int) {
	if count <= 0 {
		return
	}
	title, body := s.texts.BankLinked.Render(map[string]string{
		"count": strconv.Itoa(count),
	})
	s.send(ctx, userID, title, body, map[string]string{
		dataKeyRoute: routeAccounts,
		dataKeyCount: strconv.Itoa(count),
	})
}

func (s *Service) send(ctx context.Context, userID int64, title, body string, data map[string]string) {
	if s.messenger == nil {
		log.Printf("[Notify] messenger not configured, skipping %q for user %d", title, userID)
		return
	}
	if err := s.messenger.SendToTopic(ctx, UserTopic(userID), title, body, data); err != nil {
		log.Printf("[Notify] failed to notify user %d: %v", userID, err)
	}
}
