package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"finlink/internal/domain/account"
)

func TestHandleListLinked(t *testing.T) {
	synced := time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC)

	tests := []struct {
		name           string
		mockRepo       func() *MockAccountRepo
		expectedStatus int
		expectedCount  int
	}{
		{
			name: "Success",
			mockRepo: func() *MockAccountRepo {
				return &MockAccountRepo{
					ListLinkedByUserIDFunc: func(ctx context.Context, userID int64) ([]*account.Account, error) {
						a := linkedAccount("acc-1", userID)
						a.LastSyncedAt = &synced
						return []*account.Account{a, linkedAccount("acc-2", userID)}, nil
					},
				}
			},
			expectedStatus: http.StatusOK,
			expectedCount:  2,
		},
		{
			name: "Empty List",
			mockRepo: func() *MockAccountRepo {
				return &MockAccountRepo{}
			},
			expectedStatus: http.StatusOK,
			expectedCount:  0,
		},
		{
			name: "Repository Error",
			mockRepo: func() *MockAccountRepo {
				return &MockAccountRepo{
					ListLinkedByUserIDFunc: func(ctx context.Context, userID int64) ([]*account.Account, error) {
						return nil, errors.New("db error")
					},
				}
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewAccountHandler(account.NewService(tt.mockRepo()))

			req := withUser(httptest.NewRequest(http.MethodGet, "/api/accounts/linked", nil), 1)
			rr := httptest.NewRecorder()
			handler.HandleListLinked(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Fatalf("handler returned wrong status code: got %v want %v", rr.Code, tt.expectedStatus)
			}
			if rr.Code != http.StatusOK {
				return
			}

			var got []LinkedAccountResponse
			if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(got) != tt.expectedCount {
				t.Fatalf("got %d accounts, want %d", len(got), tt.expectedCount)
			}
			if tt.expectedCount > 0 {
				first := got[0]
				if first.ConsentStatus != "ACTIVE" || first.SyncStatus != "SYNCED" {
					t.Errorf("badges = %s/%s, want ACTIVE/SYNCED", first.ConsentStatus, first.SyncStatus)
				}
				if first.LastSyncedAt == nil || *first.LastSyncedAt != "2025-03-01T08:30:00Z" {
					t.Errorf("lastSyncedAt = %v", first.LastSyncedAt)
				}
				if got[1].LastSyncedAt != nil {
					t.Errorf("never-synced account should have null lastSyncedAt")
				}
			}
		})
	}
}

func TestHandleListLinked_Unauthorized(t *testing.T) {
	handler := NewAccountHandler(account.NewService(&MockAccountRepo{}))

	rr := httptest.NewRecorder()
	handler.HandleListLinked(rr, httptest.NewRequest(http.MethodGet, "/api/accounts/linked", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
}
