package store

import (
	"testing"

	"github.com/rowanvale/bridgewell/internal/course"
)

func TestExamAttemptCreate(t *testing.T) {
	db := setupTestDB(t)
	purchases := NewPurchaseStore(db)
	exams := NewExamStore(db)
	accountID := createTestAccount(t, db, "alice@example.com")

	p, err := purchases.Create(accountID, course.Coparenting, 5999, "", "")
	if err != nil {
		t.Fatalf("create purchase: %v", err)
	}

	a, err := exams.Create(accountID, p.ID, 85, true)
	if err != nil {
		t.Fatalf("create attempt: %v", err)
	}
	if a.Score != 85 || !a.Passed {
		t.Errorf("attempt = score %d passed %v, want 85/true", a.Score, a.Passed)
	}
	if a.PurchaseID != p.ID {
		t.Errorf("purchase_id = %d, want %d", a.PurchaseID, p.ID)
	}
}

func TestHasPassed(t *testing.T) {
	db := setupTestDB(t)
	purchases := NewPurchaseStore(db)
	exams := NewExamStore(db)
	accountID := createTestAccount(t, db, "alice@example.com")

	p, _ := purchases.Create(accountID, course.Coparenting, 5999, "", "")

	passed, err := exams.HasPassed(p.ID)
	if err != nil {
		t.Fatalf("has passed: %v", err)
	}
	if passed {
		t.Error("no attempts yet, HasPassed should be false")
	}

	exams.Create(accountID, p.ID, 60, false)
	passed, _ = exams.HasPassed(p.ID)
	if passed {
		t.Error("failed attempt should not count as passed")
	}

	exams.Create(accountID, p.ID, 90, true)
	passed, _ = exams.HasPassed(p.ID)
	if !passed {
		t.Error("passing attempt should flip HasPassed")
	}
}

func TestListByPurchaseOrdered(t *testing.T) {
	db := setupTestDB(t)
	purchases := NewPurchaseStore(db)
	exams := NewExamStore(db)
	accountID := createTestAccount(t, db, "alice@example.com")

	p, _ := purchases.Create(accountID, course.Coparenting, 5999, "", "")
	exams.Create(accountID, p.ID, 60, false)
	exams.Create(accountID, p.ID, 70, false)
	exams.Create(accountID, p.ID, 90, true)

	attempts, err := exams.ListByPurchase(p.ID)
	if err != nil {
		t.Fatalf("list attempts: %v", err)
	}
	if len(attempts) != 3 {
		t.Fatalf("len(attempts) = %d, want 3", len(attempts))
	}
	for i := 1; i < len(attempts); i++ {
		prev, cur := attempts[i-1], attempts[i]
		if cur.StartedAt.Before(prev.StartedAt) {
			t.Error("attempts should be ordered by started_at ascending")
		}
		if cur.StartedAt.Equal(prev.StartedAt) && cur.ID < prev.ID {
			t.Error("equal timestamps should be broken by id ascending")
		}
	}
	if attempts[0].Score != 60 {
		t.Errorf("first attempt score = %d, want 60", attempts[0].Score)
	}
}
