package account

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"finlink/internal/domain/consent"
)

// Service contains the business logic for linked account operations
type Service struct {
	repo Repository
}

// NewService creates a new account service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetLinkedAccount retrieves an account, verifying ownership and that it is linked.
// Accounts owned by someone else are reported as not found.
func (s *Service) GetLinkedAccount(ctx context.Context, accountID string, userID int64) (*Account, error) {
	acc, err := s.GetOwnedAccount(ctx, accountID, userID)
	if err != nil {
		return nil, err
	}
	if !acc.IsLinked {
		return nil, ErrAccountNotFound
	}
	return acc, nil
}

// GetOwnedAccount retrieves an account by ID and verifies user ownership
func (s *Service) GetOwnedAccount(ctx context.Context, accountID string, userID int64) (*Account, error) {
	if accountID == "" {
		return nil, fmt.Errorf("%w: account ID is required", ErrInvalidInput)
	}

	acc, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if acc == nil || !acc.OwnedBy(userID) {
		return nil, ErrAccountNotFound
	}
	return acc, nil
}

// ListLinkedAccounts retrieves the linked accounts of a user
func (s *Service) ListLinkedAccounts(ctx context.Context, userID int64) ([]*Account, error) {
	if userID <= 0 {
		return nil, errors.New("valid user ID is required")
	}
	return s.repo.ListLinkedByUserID(ctx, userID)
}

// UpsertFromConsent finds the local account for a provider account by consent,
// then by name, and marks it linked. Otherwise a new account is created.
func (s *Service) UpsertFromConsent(ctx context.Context, userID int64, consentID string, linked consent.LinkedAccount) (*Account, error) {
	name := LinkedName(linked.FipID, linked.MaskedAccNumber)
	params := LinkParams{
		ConsentID:       consentID,
		InstitutionName: InstitutionName(linked.FipID),
		MaskedAccNumber: linked.MaskedAccNumber,
	}

	existing, err := s.repo.FindByConsent(ctx, userID, consentID, linked.MaskedAccNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to find account by consent: %w", err)
	}
	if existing == nil {
		existing, err = s.repo.FindByName(ctx, userID, name)
		if err != nil {
			return nil, fmt.Errorf("failed to find account by name: %w", err)
		}
	}

	if existing != nil {
		log.Printf("[Accounts] relinking account %s to consent %s", existing.ID, consentID)
		return s.repo.MarkLinked(ctx, existing.ID, params)
	}

	create := CreateParams{
		ID:              uuid.NewString(),
		UserID:          userID,
		Name:            name,
		Type:            TypeFromProvider(linked.AccType),
		ConsentID:       consentID,
		InstitutionName: params.InstitutionName,
		MaskedAccNumber: linked.MaskedAccNumber,
	}
	if err := create.Validate(); err != nil {
		return nil, err
	}

	log.Printf("[Accounts] creating linked account for user %d: %s", userID, name)
	return s.repo.Create(ctx, create)
}

// ApplyEvent applies a webhook event to all accounts sharing its consent.
// Unrecognized and informational events change nothing.
func (s *Service) ApplyEvent(ctx context.Context, event consent.EventType, consentID string) (int64, error) {
	t, ok := TransitionFor(event)
	if !ok {
		log.Printf("[Accounts] unhandled webhook type %q for consent %s", event, consentID)
		return 0, nil
	}
	if t.IsNoop() {
		log.Printf("[Accounts] %s for consent %s, no state change", event, consentID)
		return 0, nil
	}
	if consentID == "" {
		return 0, fmt.Errorf("%w: consent ID is required for %s", ErrInvalidInput, event)
	}

	n, err := s.repo.ApplyTransition(ctx, consentID, t)
	if err != nil {
		return 0, fmt.Errorf("failed to apply %s: %w", event, err)
	}
	log.Printf("[Accounts] %s applied to %d account(s) for consent %s", event, n, consentID)
	return n, nil
}
