package notification

import (
	"context"
	"errors"
	"testing"

	"finlink/internal/domain/account"
)

type sent struct {
	topic, title, body string
	data               map[string]string
}

// MockMessenger records topic sends
type MockMessenger struct {
	Sent    []sent
	SendErr error
}

func (m *MockMessenger) SendToTopic(_ context.Context, topic, title, body string, data map[string]string) error {
	m.Sent = append(m.Sent, sent{topic: topic, title: title, body: body, data: data})
	return m.SendErr
}

func TestUserTopic(t *testing.T) {
	if got := UserTopic(42); got != "user-42" {
		t.Errorf("UserTopic(42) = %q", got)
	}
}

func TestService_SyncCompleted(t *testing.T) {
	acc := &account.Account{ID: "acc-1", UserID: 7, Name: "HDFC-FIP - XX1234"}

	tests := []struct {
		name     string
		inserted int
		wantSent int
	}{
		{name: "new transactions notify", inserted: 3, wantSent: 1},
		{name: "nothing new stays quiet", inserted: 0, wantSent: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &MockMessenger{}
			svc := NewService(m, nil)

			svc.SyncCompleted(context.Background(), acc, tt.inserted)

			if len(m.Sent) != tt.wantSent {
				t.Fatalf("sent %d, want %d", len(m.Sent), tt.wantSent)
			}
			if tt.wantSent == 0 {
				return
			}
			got := m.Sent[0]
			if got.topic != "user-7" {
				t.Errorf("topic = %q", got.topic)
			}
			if got.body != "3 new transactions imported from HDFC-FIP - XX1234" {
				t.Errorf("body = %q", got.body)
			}
			if got.data["accountId"] != "acc-1" || got.data["route"] != "accounts" {
				t.Errorf("data = %v", got.data)
			}
		})
	}
}

func TestService_SendFailuresAreSwallowed(t *testing.T) {
	m := &MockMessenger{SendErr: errors.New("fcm down")}
	svc := NewService(m, nil)

	svc.AccountsLinked(context.Background(), 7, 2)

	if len(m.Sent) != 1 {
		t.Fatalf("sent %d, want 1", len(m.Sent))
	}
}

func TestService_NilMessenger(t *testing.T) {
	svc := NewService(nil, nil)
	svc.SyncCompleted(context.Background(), &account.Account{UserID: 1}, 5)
	svc.AccountsLinked(context.Background(), 1, 1)
}
