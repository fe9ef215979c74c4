// Package service provides account business logic,
// delegating persistence to an AccountRepository.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/atinyakov/GophAccounts/internal/models"
	"github.com/atinyakov/GophAccounts/internal/repository"
	"github.com/google/uuid"
)

// ErrLoginTaken is returned when a login is already used by another account.
var ErrLoginTaken = repository.ErrLoginTaken

// ErrAccountNotFound is returned when the requested account does not exist.
var ErrAccountNotFound = repository.ErrAccountNotFound

// InvalidAccountError carries the validation flags of a rejected account.
type InvalidAccountError struct {
	Errors models.ValidationErrors
}

func (e *InvalidAccountError) Error() string {
	return fmt.Sprintf("invalid account: login=%t password=%t", e.Errors.Login, e.Errors.Password)
}

// AccountRepository defines the persistence operations
// required by the account service.
type AccountRepository interface {
	// LoginExists returns true if a live account uses login.
	LoginExists(ctx context.Context, login string) (bool, error)
	// CreateAccount stores a new account with a preassigned ID.
	CreateAccount(ctx context.Context, a models.Account) error
	// GetAccount loads a live account by ID.
	GetAccount(ctx context.Context, id string) (models.Account, error)
	// ListAccounts loads all live accounts.
	ListAccounts(ctx context.Context) ([]models.Account, error)
	// UpdateAccount replaces the stored account with the same ID.
	UpdateAccount(ctx context.Context, a models.Account) error
	// DeleteAccount removes the account with the given ID.
	DeleteAccount(ctx context.Context, id string) error
}

// AccountService implements account operations on top of an AccountRepository.
type AccountService struct {
	// repo performs the data-layer operations.
	repo AccountRepository
	// newID generates identifiers for new accounts.
	newID func() string
}

// NewAccountService constructs an AccountService using the provided repository.
func NewAccountService(repo AccountRepository) *AccountService {
	return &AccountService{repo: repo, newID: uuid.NewString}
}

// Validate reports which fields of a are invalid without touching storage.
func (s *AccountService) Validate(a models.Account) models.ValidationErrors {
	return models.Validate(a)
}

// Create stores a new account and returns it with its assigned ID.
// LDAP accounts are stored without a password.
func (s *AccountService) Create(ctx context.Context, a models.Account) (models.Account, error) {
	if !a.Type.IsValid() {
		return models.Account{}, fmt.Errorf("%w: %q", models.ErrUnknownAccountType, a.Type)
	}
	a = models.SetType(a, a.Type)
	if v := models.Validate(a); v.HasErrors() {
		return models.Account{}, &InvalidAccountError{Errors: v}
	}

	exists, err := s.repo.LoginExists(ctx, a.Login)
	if err != nil {
		return models.Account{}, err
	}
	if exists {
		return models.Account{}, ErrLoginTaken
	}

	if a.ID == "" {
		a.ID = s.newID()
	}
	if a.Tags == nil {
		a.Tags = []models.TagItem{}
	}
	if err := s.repo.CreateAccount(ctx, a); err != nil {
		return models.Account{}, err
	}
	return a, nil
}

// Get returns the account with the given ID.
func (s *AccountService) Get(ctx context.Context, id string) (models.Account, error) {
	return s.repo.GetAccount(ctx, id)
}

// List returns all accounts.
func (s *AccountService) List(ctx context.Context) ([]models.Account, error) {
	return s.repo.ListAccounts(ctx)
}

// Update replaces a stored account with a. The account must pass validation.
func (s *AccountService) Update(ctx context.Context, a models.Account) (models.Account, error) {
	if !a.Type.IsValid() {
		return models.Account{}, fmt.Errorf("%w: %q", models.ErrUnknownAccountType, a.Type)
	}
	a = models.SetType(a, a.Type)
	if v := models.Validate(a); v.HasErrors() {
		return models.Account{}, &InvalidAccountError{Errors: v}
	}
	if err := s.repo.UpdateAccount(ctx, a); err != nil {
		return models.Account{}, err
	}
	return a, nil
}

// Delete removes the account with the given ID.
func (s *AccountService) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteAccount(ctx, id)
}

// AddTag appends a tag to the stored account.
func (s *AccountService) AddTag(ctx context.Context, id, text string) (models.Account, error) {
	return s.modify(ctx, id, func(a models.Account) (models.Account, error) {
		return models.AddTag(a, text), nil
	})
}

// RemoveTag drops the tag at index from the stored account.
func (s *AccountService) RemoveTag(ctx context.Context, id string, index int) (models.Account, error) {
	return s.modify(ctx, id, func(a models.Account) (models.Account, error) {
		return models.RemoveTag(a, index)
	})
}

// EditTag replaces the text of the tag at index.
func (s *AccountService) EditTag(ctx context.Context, id string, index int, text string) (models.Account, error) {
	return s.modify(ctx, id, func(a models.Account) (models.Account, error) {
		return models.EditTag(a, index, text)
	})
}

// SetType switches the account type. The result is stored even when it no
// longer validates, e.g. a former LDAP account that has no password yet.
func (s *AccountService) SetType(ctx context.Context, id string, t models.AccountType) (models.Account, error) {
	if !t.IsValid() {
		return models.Account{}, fmt.Errorf("%w: %q", models.ErrUnknownAccountType, t)
	}
	return s.modify(ctx, id, func(a models.Account) (models.Account, error) {
		return models.SetType(a, t), nil
	})
}

func (s *AccountService) modify(
	ctx context.Context,
	id string,
	apply func(models.Account) (models.Account, error),
) (models.Account, error) {
	current, err := s.repo.GetAccount(ctx, id)
	if err != nil {
		return models.Account{}, err
	}
	updated, err := apply(current)
	if err != nil {
		return models.Account{}, err
	}
	if err := s.repo.UpdateAccount(ctx, updated); err != nil {
		return models.Account{}, err
	}
	return updated, nil
}

// IsInvalidAccount extracts validation flags from err, if it carries any.
func IsInvalidAccount(err error) (models.ValidationErrors, bool) {
	var invalid *InvalidAccountError
	if errors.As(err, &invalid) {
		return invalid.Errors, true
	}
	return models.ValidationErrors{}, false
}
