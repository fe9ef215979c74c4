// Package models defines the core data structures for accounts and their tags.
package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// AccountType selects the authentication path for an account.
// Only AccountTypeLDAP and AccountTypeLocal are legal values.
type AccountType string

const (
	// AccountTypeLDAP marks an account whose credential lives in an external directory.
	AccountTypeLDAP AccountType = "LDAP"
	// AccountTypeLocal marks an account whose password is stored locally.
	AccountTypeLocal AccountType = "Локальная"
)

// ErrUnknownAccountType is returned when a value outside the two account types is supplied.
var ErrUnknownAccountType = errors.New("unknown account type")

// ParseAccountType converts raw input into an AccountType.
func ParseAccountType(s string) (AccountType, error) {
	switch t := AccountType(s); t {
	case AccountTypeLDAP, AccountTypeLocal:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAccountType, s)
	}
}

// IsValid reports whether t is one of the known account types.
func (t AccountType) IsValid() bool {
	_, err := ParseAccountType(string(t))
	return err == nil
}

// UnmarshalJSON rejects any value other than the known account types.
func (t *AccountType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseAccountType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// TagItem is a free-form label attached to an account.
type TagItem struct {
	// Text is the label itself. An empty Text is legal but carries no meaning.
	Text string `json:"text"`
}

// IsBlank reports whether the tag has no text.
func (t TagItem) IsBlank() bool {
	return t.Text == ""
}

// Account represents an authentication account.
type Account struct {
	// ID is assigned by the persistence layer when the account is created.
	ID string `json:"id"`
	// Tags are kept in display order. Nil and empty tags are the same value.
	Tags []TagItem `json:"tags"`
	// Type decides which authentication path applies.
	Type AccountType `json:"type"`
	// Login is the identity credential.
	Login string `json:"login"`
	// Password is nil when the credential is managed externally.
	Password *string `json:"password"`
}

// MarshalJSON encodes nil tags as an empty list so that nil and empty tags
// look the same on the wire.
func (a Account) MarshalJSON() ([]byte, error) {
	type plain Account
	out := plain(a)
	if out.Tags == nil {
		out.Tags = []TagItem{}
	}
	return json.Marshal(out)
}

// ValidationErrors flags which of the login and password fields are invalid.
// A false flag means the field is fine; it is omitted when encoded.
type ValidationErrors struct {
	Login    bool `json:"login,omitempty"`
	Password bool `json:"password,omitempty"`
}

// HasErrors reports whether any field is flagged.
func (v ValidationErrors) HasErrors() bool {
	return v.Login || v.Password
}
