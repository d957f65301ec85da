// Package swap implements the one-time class reassignment of a purchase. The
// swap is destructive: progress and exam history for the abandoned class are
// discarded, not archived. The has_swapped latch on the purchase row is the
// sole lifetime guard and only ever transitions false to true.
package swap

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rowanvale/bridgewell/internal/course"
	"github.com/rowanvale/bridgewell/internal/model"
	"github.com/rowanvale/bridgewell/internal/store"
)

// maxLessonsForSwap is the completed-lesson ceiling: at 2 or more the student
// is too far along to change their mind.
const maxLessonsForSwap = 2

// Eligibility failures, in the order they are checked. Each carries the
// user-facing reason returned by the API.
var (
	ErrSameClass         = errors.New("cannot swap a class for itself")
	ErrNoActivePurchase  = errors.New("no active purchase found for this class")
	ErrAlreadySwapped    = errors.New("already used free swap for this purchase")
	ErrTargetOwned       = errors.New("you already own the requested class")
	ErrTooFarAlong       = errors.New("too many lessons completed to swap")
	ErrExamPassed        = errors.New("cannot swap after passing the exam")
	ErrCertificateIssued = errors.New("cannot swap after a certificate has been issued")
)

// IsEligibilityError reports whether err is an expected business-rule
// rejection rather than an upstream failure.
func IsEligibilityError(err error) bool {
	for _, e := range []error{
		ErrSameClass, ErrNoActivePurchase, ErrAlreadySwapped,
		ErrTargetOwned, ErrTooFarAlong, ErrExamPassed, ErrCertificateIssued,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

type Service struct {
	db           *sql.DB
	purchases    *store.PurchaseStore
	progress     *store.ProgressStore
	exams        *store.ExamStore
	certificates *store.CertificateStore
}

func NewService(db *sql.DB, ps *store.PurchaseStore, cps *store.ProgressStore, es *store.ExamStore, cs *store.CertificateStore) *Service {
	return &Service{
		db:           db,
		purchases:    ps,
		progress:     cps,
		exams:        es,
		certificates: cs,
	}
}

// Swap reassigns the caller's active purchase from one single course to the
// other. Eligibility is checked in order with the first failure winning; the
// write phase runs in one transaction with a compare-and-swap on has_swapped,
// so a racing swap for the same purchase cannot also succeed.
func (s *Service) Swap(accountID string, from, to course.Type) (*model.Purchase, error) {
	if from == to {
		return nil, ErrSameClass
	}

	purchase, err := s.purchases.ActiveByAccountAndType(accountID, from)
	if err != nil {
		return nil, err
	}
	if purchase == nil {
		return nil, ErrNoActivePurchase
	}

	if purchase.HasSwapped {
		return nil, ErrAlreadySwapped
	}

	ownsTarget, err := s.purchases.HasActiveEntitlement(accountID, to)
	if err != nil {
		return nil, err
	}
	if ownsTarget {
		return nil, ErrTargetOwned
	}

	progress, err := s.progress.GetByAccountAndType(accountID, from)
	if err != nil {
		return nil, err
	}
	if progress != nil && len(progress.LessonsCompleted) >= maxLessonsForSwap {
		return nil, ErrTooFarAlong
	}

	passed, err := s.exams.HasPassed(purchase.ID)
	if err != nil {
		return nil, err
	}
	if passed {
		return nil, ErrExamPassed
	}

	cert, err := s.certificates.GetByAccountAndType(accountID, from)
	if err != nil {
		return nil, err
	}
	if cert != nil {
		return nil, ErrCertificateIssued
	}

	if err := s.apply(accountID, purchase.ID, from, to); err != nil {
		return nil, err
	}
	return s.purchases.GetByID(purchase.ID)
}

func (s *Service) apply(accountID string, purchaseID int64, from, to course.Type) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin swap: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`UPDATE purchases SET course_type = ?, has_swapped = 1 WHERE id = ? AND has_swapped = 0`,
		string(to), purchaseID,
	)
	if err != nil {
		return fmt.Errorf("update purchase: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		// Lost the race to a concurrent swap.
		return ErrAlreadySwapped
	}

	if _, err := tx.Exec(
		`DELETE FROM course_progress WHERE account_id = ? AND course_type = ?`,
		accountID, string(from),
	); err != nil {
		return fmt.Errorf("delete old progress: %w", err)
	}

	if _, err := tx.Exec(
		`INSERT INTO course_progress (account_id, course_type, current_lesson, lessons_completed, started_at)
		 VALUES (?, ?, 1, '', ?)
		 ON CONFLICT(account_id, course_type) DO UPDATE SET
		 	current_lesson = 1, lessons_completed = '', started_at = excluded.started_at, completed_at = NULL`,
		accountID, string(to), time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("insert new progress: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM exam_attempts WHERE purchase_id = ?`, purchaseID); err != nil {
		return fmt.Errorf("delete exam attempts: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit swap: %w", err)
	}
	return nil
}
