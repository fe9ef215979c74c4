package models

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrTagIndexOutOfRange is returned when a tag position does not exist.
var ErrTagIndexOutOfRange = errors.New("tag index out of range")

// Clone returns a deep copy of a. The copy shares no tag storage and no
// password slot with a. Nil tags stay nil.
func Clone(a Account) Account {
	out := a
	out.Tags = slices.Clone(a.Tags)
	if a.Password != nil {
		p := *a.Password
		out.Password = &p
	}
	return out
}

// Validate checks the login and password fields of a.
// Passwords of LDAP accounts are never flagged. Any other type, including an
// unset one, needs a password like a local account.
func Validate(a Account) ValidationErrors {
	var v ValidationErrors
	if strings.TrimSpace(a.Login) == "" {
		v.Login = true
	}
	if a.Type != AccountTypeLDAP && (a.Password == nil || *a.Password == "") {
		v.Password = true
	}
	return v
}

// AddTag returns a copy of a with a new tag appended.
// Duplicates and empty text are accepted as is.
func AddTag(a Account, text string) Account {
	out := Clone(a)
	out.Tags = append(out.Tags, TagItem{Text: text})
	return out
}

// RemoveTag returns a copy of a without the tag at index.
func RemoveTag(a Account, index int) (Account, error) {
	if err := checkTagIndex(a, index); err != nil {
		return Account{}, err
	}
	out := Clone(a)
	out.Tags = slices.Delete(out.Tags, index, index+1)
	return out, nil
}

// EditTag returns a copy of a with the tag at index replaced by text.
func EditTag(a Account, index int, text string) (Account, error) {
	if err := checkTagIndex(a, index); err != nil {
		return Account{}, err
	}
	out := Clone(a)
	out.Tags[index] = TagItem{Text: text}
	return out, nil
}

// SetType returns a copy of a with its type replaced.
// Switching to LDAP drops the locally held password; switching to local
// keeps whatever password is present, including none.
func SetType(a Account, t AccountType) Account {
	out := Clone(a)
	out.Type = t
	if t == AccountTypeLDAP {
		out.Password = nil
	}
	return out
}

func checkTagIndex(a Account, index int) error {
	if index < 0 || index >= len(a.Tags) {
		return fmt.Errorf("%w: index %d, %d tags", ErrTagIndexOutOfRange, index, len(a.Tags))
	}
	return nil
}
