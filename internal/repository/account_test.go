package repository

import (
	"context"
	"errors"
	"reflect"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/atinyakov/GophAccounts/internal/models"
	"github.com/lib/pq"
)

var accountColumns = []string{"id", "login", "type", "password", "tags"}

func setupAccountMock(t *testing.T) (*PostgresAccountRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	repo := NewPostgresAccountRepository(db)
	cleanup := func() { db.Close() }
	return repo, mock, cleanup
}

func strPtr(s string) *string { return &s }

func TestLoginExists(t *testing.T) {
	for _, want := range []bool{true, false} {
		repo, mock, cleanup := setupAccountMock(t)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM accounts WHERE login = $1 AND deleted = false)`)).
			WithArgs("bob").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(want))

		got, err := repo.LoginExists(context.Background(), "bob")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Errorf("LoginExists = %v; want %v", got, want)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		cleanup()
	}
}

func TestLoginExists_Error(t *testing.T) {
	repo, mock, cleanup := setupAccountMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS`)).
		WithArgs("bob").
		WillReturnError(errors.New("query failed"))

	if _, err := repo.LoginExists(context.Background(), "bob"); err == nil {
		t.Errorf("expected error, got nil")
	}
}

func TestCreateAccount_Success(t *testing.T) {
	repo, mock, cleanup := setupAccountMock(t)
	defer cleanup()

	account := models.Account{
		ID:       "1",
		Login:    "bob",
		Type:     models.AccountTypeLocal,
		Password: strPtr("secret"),
		Tags:     []models.TagItem{{Text: "vip"}, {Text: "ops"}},
	}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO accounts (id, login, type, password, tags)`)).
		WithArgs("1", "bob", "Локальная", "secret", pq.Array([]string{"vip", "ops"})).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.CreateAccount(context.Background(), account); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestCreateAccount_NullPasswordAndNoTags(t *testing.T) {
	repo, mock, cleanup := setupAccountMock(t)
	defer cleanup()

	account := models.Account{ID: "2", Login: "alice", Type: models.AccountTypeLDAP}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO accounts`)).
		WithArgs("2", "alice", "LDAP", nil, "{}").
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.CreateAccount(context.Background(), account); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestCreateAccount_DuplicateLogin(t *testing.T) {
	repo, mock, cleanup := setupAccountMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO accounts`)).
		WillReturnError(&pq.Error{Code: uniqueViolation})

	err := repo.CreateAccount(context.Background(), models.Account{ID: "1", Login: "bob", Type: models.AccountTypeLDAP})
	if !errors.Is(err, ErrLoginTaken) {
		t.Fatalf("CreateAccount error = %v; want ErrLoginTaken", err)
	}
}

func TestGetAccount_Success(t *testing.T) {
	repo, mock, cleanup := setupAccountMock(t)
	defer cleanup()

	rows := sqlmock.NewRows(accountColumns).
		AddRow("1", "bob", "Локальная", "secret", `{vip,"two words",""}`)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, login, type, password, tags FROM accounts WHERE id = $1 AND deleted = false`)).
		WithArgs("1").
		WillReturnRows(rows)

	got, err := repo.GetAccount(context.Background(), "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := models.Account{
		ID:       "1",
		Login:    "bob",
		Type:     models.AccountTypeLocal,
		Password: strPtr("secret"),
		Tags:     []models.TagItem{{Text: "vip"}, {Text: "two words"}, {Text: ""}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("GetAccount = %+v; want %+v", got, want)
	}
}

func TestGetAccount_NullPassword(t *testing.T) {
	repo, mock, cleanup := setupAccountMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, login, type, password, tags FROM accounts`)).
		WithArgs("2").
		WillReturnRows(sqlmock.NewRows(accountColumns).AddRow("2", "alice", "LDAP", nil, "{}"))

	got, err := repo.GetAccount(context.Background(), "2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Password != nil {
		t.Errorf("Password = %q; want nil", *got.Password)
	}
	if got.Tags == nil || len(got.Tags) != 0 {
		t.Errorf("Tags = %#v; want empty non-nil slice", got.Tags)
	}
}

func TestGetAccount_NotFound(t *testing.T) {
	repo, mock, cleanup := setupAccountMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, login, type, password, tags FROM accounts`)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(accountColumns))

	_, err := repo.GetAccount(context.Background(), "missing")
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("GetAccount error = %v; want ErrAccountNotFound", err)
	}
}

func TestGetAccount_UnknownStoredType(t *testing.T) {
	repo, mock, cleanup := setupAccountMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, login, type, password, tags FROM accounts`)).
		WithArgs("3").
		WillReturnRows(sqlmock.NewRows(accountColumns).AddRow("3", "eve", "oauth", nil, "{}"))

	_, err := repo.GetAccount(context.Background(), "3")
	if !errors.Is(err, models.ErrUnknownAccountType) {
		t.Fatalf("GetAccount error = %v; want ErrUnknownAccountType", err)
	}
}

func TestListAccounts(t *testing.T) {
	repo, mock, cleanup := setupAccountMock(t)
	defer cleanup()

	rows := sqlmock.NewRows(accountColumns).
		AddRow("2", "alice", "LDAP", nil, "{ops}").
		AddRow("1", "bob", "Локальная", "secret", "{}")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, login, type, password, tags FROM accounts WHERE deleted = false ORDER BY login, id`)).
		WillReturnRows(rows)

	got, err := repo.ListAccounts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(got))
	}
	if got[0].Login != "alice" || got[1].Login != "bob" {
		t.Errorf("unexpected order: %q, %q", got[0].Login, got[1].Login)
	}
	if got[0].Tags[0].Text != "ops" {
		t.Errorf("Tags = %+v; want ops", got[0].Tags)
	}
}

func TestListAccounts_Empty(t *testing.T) {
	repo, mock, cleanup := setupAccountMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, login, type, password, tags FROM accounts`)).
		WillReturnRows(sqlmock.NewRows(accountColumns))

	got, err := repo.ListAccounts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("ListAccounts = %#v; want empty non-nil slice", got)
	}
}

func TestListAccounts_QueryError(t *testing.T) {
	repo, mock, cleanup := setupAccountMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, login, type, password, tags FROM accounts`)).
		WillReturnError(errors.New("boom"))

	if _, err := repo.ListAccounts(context.Background()); err == nil {
		t.Errorf("expected error, got nil")
	}
}

func TestUpdateAccount_Success(t *testing.T) {
	repo, mock, cleanup := setupAccountMock(t)
	defer cleanup()

	account := models.Account{ID: "1", Login: "bob", Type: models.AccountTypeLDAP, Tags: []models.TagItem{{Text: "vip"}}}

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE accounts`)).
		WithArgs("1", "bob", "LDAP", nil, pq.Array([]string{"vip"})).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateAccount(context.Background(), account); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestUpdateAccount_NotFound(t *testing.T) {
	repo, mock, cleanup := setupAccountMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE accounts`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateAccount(context.Background(), models.Account{ID: "x", Login: "bob", Type: models.AccountTypeLDAP})
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("UpdateAccount error = %v; want ErrAccountNotFound", err)
	}
}

func TestUpdateAccount_DuplicateLogin(t *testing.T) {
	repo, mock, cleanup := setupAccountMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE accounts`)).
		WillReturnError(&pq.Error{Code: uniqueViolation})

	err := repo.UpdateAccount(context.Background(), models.Account{ID: "1", Login: "alice", Type: models.AccountTypeLDAP})
	if !errors.Is(err, ErrLoginTaken) {
		t.Fatalf("UpdateAccount error = %v; want ErrLoginTaken", err)
	}
}

func TestDeleteAccount(t *testing.T) {
	repo, mock, cleanup := setupAccountMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE accounts SET deleted = true, deleted_at = now()`)).
		WithArgs("1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.DeleteAccount(context.Background(), "1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestDeleteAccount_NotFound(t *testing.T) {
	repo, mock, cleanup := setupAccountMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE accounts SET deleted = true`)).
		WithArgs("1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.DeleteAccount(context.Background(), "1"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("DeleteAccount error = %v; want ErrAccountNotFound", err)
	}
}
