package store

import (
	"database/sql"
	"fmt"

	"github.com/rowanvale/bridgewell/internal/model"
)

type AttorneyStore struct {
	db *sql.DB
}

func NewAttorneyStore(db *sql.DB) *AttorneyStore {
	return &AttorneyStore{db: db}
}

func scanAttorney(scanner interface{ Scan(...any) error }) (*model.Attorney, error) {
	var a model.Attorney
	var firm, email sql.NullString
	err := scanner.Scan(&a.ID, &a.Name, &firm, &email, &a.ReferralCount, &a.CardsSent, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.Firm = nullableString(firm)
	a.Email = nullableString(email)
	return &a, nil
}

const attorneyCols = `id, name, firm, email, referral_count, cards_sent, created_at`

func (s *AttorneyStore) Create(name, firm, email string) (*model.Attorney, error) {
	result, err := s.db.Exec(
		`INSERT INTO attorneys (name, firm, email) VALUES (?, nullif(?, ''), nullif(?, ''))`,
		name, firm, email,
	)
	if err != nil {
		return nil, fmt.Errorf("insert attorney: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+attorneyCols+` FROM attorneys WHERE id = ?`, id)
	return scanAttorney(row)
}

// Search matches attorneys by name or firm substring, for profile autocomplete.
func (s *AttorneyStore) Search(query string, limit int) ([]model.Attorney, error) {
	if limit <= 0 {
		limit = 10
	}
	like := "%" + query + "%"
	rows, err := s.db.Query(
		`SELECT `+attorneyCols+` FROM attorneys WHERE name LIKE ? OR firm LIKE ? ORDER BY name ASC LIMIT ?`,
		like, like, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search attorneys: %w", err)
	}
	defer rows.Close()

	var attorneys []model.Attorney
	for rows.Next() {
		a, err := scanAttorney(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attorney: %w", err)
		}
		attorneys = append(attorneys, *a)
	}
	return attorneys, rows.Err()
}

func (s *AttorneyStore) GetByEmail(email string) (*model.Attorney, error) {
	row := s.db.QueryRow(`SELECT `+attorneyCols+` FROM attorneys WHERE email = ?`, email)
	a, err := scanAttorney(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get attorney by email: %w", err)
	}
	return a, nil
}

// IncrementReferral bumps the referral counter for the attorney on file when
// one of their clients completes a course.
func (s *AttorneyStore) IncrementReferral(id int64) error {
	_, err := s.db.Exec(`UPDATE attorneys SET referral_count = referral_count + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("increment referral: %w", err)
	}
	return nil
}
