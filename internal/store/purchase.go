package store

import (
	"database/sql"
	"fmt"

	"github.com/rowanvale/bridgewell/internal/course"
	"github.com/rowanvale/bridgewell/internal/model"
)

type PurchaseStore struct {
	db *sql.DB
}

func NewPurchaseStore(db *sql.DB) *PurchaseStore {
	return &PurchaseStore{db: db}
}

func scanPurchase(scanner interface{ Scan(...any) error }) (*model.Purchase, error) {
	var p model.Purchase
	var courseType string
	var customerID, sessionID sql.NullString
	err := scanner.Scan(
		&p.ID, &p.AccountID, &courseType, &p.Status, &p.AmountPaid,
		&customerID, &sessionID, &p.HasSwapped, &p.PurchasedAt,
	)
	if err != nil {
		return nil, err
	}
	p.CourseType = course.Type(courseType)
	if customerID.Valid {
		p.StripeCustomerID = &customerID.String
	}
	if sessionID.Valid {
		p.StripeSessionID = &sessionID.String
	}
	return &p, nil
}

const purchaseCols = `id, account_id, course_type, status, amount_paid, stripe_customer_id, stripe_session_id, has_swapped, purchased_at`

// Create inserts an active purchase. Each completed payment is a distinct
// entitlement, so duplicate (account, course) rows are allowed.
func (s *PurchaseStore) Create(accountID string, t course.Type, amountPaid int64, stripeCustomerID, stripeSessionID string) (*model.Purchase, error) {
	result, err := s.db.Exec(
		`INSERT INTO purchases (account_id, course_type, status, amount_paid, stripe_customer_id, stripe_session_id)
		 VALUES (?, ?, ?, ?, nullif(?, ''), nullif(?, ''))`,
		accountID, string(t), model.PurchaseStatusActive, amountPaid, stripeCustomerID, stripeSessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert purchase: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *PurchaseStore) GetByID(id int64) (*model.Purchase, error) {
	row := s.db.QueryRow(`SELECT `+purchaseCols+` FROM purchases WHERE id = ?`, id)
	p, err := scanPurchase(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get purchase: %w", err)
	}
	return p, nil
}

// ActiveByAccountAndType returns the oldest active purchase of exactly the
// given course type, or nil.
func (s *PurchaseStore) ActiveByAccountAndType(accountID string, t course.Type) (*model.Purchase, error) {
	row := s.db.QueryRow(
		`SELECT `+purchaseCols+` FROM purchases
		 WHERE account_id = ? AND course_type = ? AND status = ?
		 ORDER BY purchased_at ASC LIMIT 1`,
		accountID, string(t), model.PurchaseStatusActive,
	)
	p, err := scanPurchase(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active purchase: %w", err)
	}
	return p, nil
}

// HasActiveEntitlement reports whether the account holds an active purchase
// granting access to the single course want (directly or via the bundle).
func (s *PurchaseStore) HasActiveEntitlement(accountID string, want course.Type) (bool, error) {
	purchases, err := s.ListByAccount(accountID)
	if err != nil {
		return false, err
	}
	for _, p := range purchases {
		if p.Status == model.PurchaseStatusActive && p.CourseType.Entitles(want) {
			return true, nil
		}
	}
	return false, nil
}

func (s *PurchaseStore) ListByAccount(accountID string) ([]model.Purchase, error) {
	rows, err := s.db.Query(
		`SELECT `+purchaseCols+` FROM purchases WHERE account_id = ? ORDER BY purchased_at ASC`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("list purchases by account: %w", err)
	}
	defer rows.Close()
	return collectPurchases(rows)
}

func (s *PurchaseStore) ListByStripeCustomerID(customerID string) ([]model.Purchase, error) {
	rows, err := s.db.Query(
		`SELECT `+purchaseCols+` FROM purchases WHERE stripe_customer_id = ?`,
		customerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list purchases by stripe customer: %w", err)
	}
	defer rows.Close()
	return collectPurchases(rows)
}

func (s *PurchaseStore) ListAll() ([]model.Purchase, error) {
	rows, err := s.db.Query(`SELECT ` + purchaseCols + ` FROM purchases`)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()
	return collectPurchases(rows)
}

func collectPurchases(rows *sql.Rows) ([]model.Purchase, error) {
	var purchases []model.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		purchases = append(purchases, *p)
	}
	return purchases, rows.Err()
}
