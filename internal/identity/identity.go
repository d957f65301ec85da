// Package identity manages account records: the locally hosted stand-in for
// the identity provider. Account ids are opaque UUIDs; passwords are bcrypt
// hashes. Accounts provisioned by the payment webhook are created with a
// generated one-time password and a pre-confirmed email.
package identity

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/rowanvale/bridgewell/internal/model"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func scanAccount(scanner interface{ Scan(...any) error }) (*model.Account, error) {
	var a model.Account
	var confirmedAt, lastLoginAt sql.NullTime
	err := scanner.Scan(&a.ID, &a.Email, &confirmedAt, &lastLoginAt, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	if confirmedAt.Valid {
		a.ConfirmedAt = &confirmedAt.Time
	}
	if lastLoginAt.Valid {
		a.LastLoginAt = &lastLoginAt.Time
	}
	return &a, nil
}

const accountCols = `id, email, confirmed_at, last_login_at, created_at`

const passwordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz23456789"

// GeneratePassword returns a 12-character one-time password drawn from an
// unambiguous alphabet (no 0/O, 1/l/I).
func GeneratePassword() (string, error) {
	var b strings.Builder
	max := big.NewInt(int64(len(passwordAlphabet)))
	for i := 0; i < 12; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate password: %w", err)
		}
		b.WriteByte(passwordAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// Create inserts an account with the given password, marking the email
// confirmed. The email is stored lowercased.
func (s *Store) Create(email, password string) (*model.Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	_, err = s.db.Exec(
		`INSERT INTO accounts (id, email, password_hash, confirmed_at) VALUES (?, ?, ?, ?)`,
		id, strings.ToLower(email), string(hash), now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return s.GetByID(id)
}

func (s *Store) GetByID(id string) (*model.Account, error) {
	row := s.db.QueryRow(`SELECT `+accountCols+` FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (s *Store) GetByEmail(email string) (*model.Account, error) {
	row := s.db.QueryRow(`SELECT `+accountCols+` FROM accounts WHERE email = ?`, strings.ToLower(email))
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account by email: %w", err)
	}
	return a, nil
}

// Authenticate verifies the password for the given email and returns the
// account, or nil if the credentials do not match.
func (s *Store) Authenticate(email, password string) (*model.Account, error) {
	var a model.Account
	var hash string
	var confirmedAt, lastLoginAt sql.NullTime
	row := s.db.QueryRow(
		`SELECT id, email, password_hash, confirmed_at, last_login_at, created_at FROM accounts WHERE email = ?`,
		strings.ToLower(email),
	)
	err := row.Scan(&a.ID, &a.Email, &hash, &confirmedAt, &lastLoginAt, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account for auth: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, nil
	}
	if confirmedAt.Valid {
		a.ConfirmedAt = &confirmedAt.Time
	}
	if lastLoginAt.Valid {
		a.LastLoginAt = &lastLoginAt.Time
	}
	return &a, nil
}

// TouchLogin records a successful login time.
func (s *Store) TouchLogin(id string) error {
	_, err := s.db.Exec(`UPDATE accounts SET last_login_at = ? WHERE id = ?`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("touch login: %w", err)
	}
	return nil
}

// ListAll returns every account, used by the admin customer lookup.
func (s *Store) ListAll() ([]model.Account, error) {
	rows, err := s.db.Query(`SELECT ` + accountCols + ` FROM accounts`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

// IsDuplicateEmail reports whether err is the unique-constraint violation
// raised by inserting an email that already has an account.
func IsDuplicateEmail(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: accounts.email")
}
