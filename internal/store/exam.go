package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rowanvale/bridgewell/internal/model"
)

type ExamStore struct {
	db *sql.DB
}

func NewExamStore(db *sql.DB) *ExamStore {
	return &ExamStore{db: db}
}

func scanAttempt(scanner interface{ Scan(...any) error }) (*model.ExamAttempt, error) {
	var a model.ExamAttempt
	err := scanner.Scan(&a.ID, &a.AccountID, &a.PurchaseID, &a.Score, &a.Passed, &a.StartedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

const attemptCols = `id, account_id, purchase_id, score, passed, started_at`

func (s *ExamStore) Create(accountID string, purchaseID int64, score int, passed bool) (*model.ExamAttempt, error) {
	result, err := s.db.Exec(
		`INSERT INTO exam_attempts (account_id, purchase_id, score, passed, started_at) VALUES (?, ?, ?, ?, ?)`,
		accountID, purchaseID, score, passed, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert exam attempt: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+attemptCols+` FROM exam_attempts WHERE id = ?`, id)
	return scanAttempt(row)
}

// HasPassed reports whether any attempt for the purchase passed.
func (s *ExamStore) HasPassed(purchaseID int64) (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM exam_attempts WHERE purchase_id = ? AND passed = 1`,
		purchaseID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count passed attempts: %w", err)
	}
	return n > 0, nil
}

func (s *ExamStore) ListByPurchase(purchaseID int64) ([]model.ExamAttempt, error) {
	rows, err := s.db.Query(
		`SELECT `+attemptCols+` FROM exam_attempts WHERE purchase_id = ? ORDER BY started_at ASC, id ASC`,
		purchaseID,
	)
	if err != nil {
		return nil, fmt.Errorf("list attempts by purchase: %w", err)
	}
	defer rows.Close()
	return collectAttempts(rows)
}

func (s *ExamStore) ListByAccount(accountID string) ([]model.ExamAttempt, error) {
	rows, err := s.db.Query(
		`SELECT `+attemptCols+` FROM exam_attempts WHERE account_id = ? ORDER BY started_at ASC, id ASC`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("list attempts by account: %w", err)
	}
	defer rows.Close()
	return collectAttempts(rows)
}

func (s *ExamStore) ListAll() ([]model.ExamAttempt, error) {
	rows, err := s.db.Query(`SELECT ` + attemptCols + ` FROM exam_attempts ORDER BY started_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()
	return collectAttempts(rows)
}

func collectAttempts(rows *sql.Rows) ([]model.ExamAttempt, error) {
	var attempts []model.ExamAttempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan exam attempt: %w", err)
		}
		attempts = append(attempts, *a)
	}
	return attempts, rows.Err()
}
