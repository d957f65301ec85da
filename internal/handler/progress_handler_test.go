package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rowanvale/bridgewell/internal/course"
)

func progressGet(h *ProgressHandler, accountID, courseType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/api/progress/"+courseType, nil)
	req.SetPathValue("courseType", courseType)
	req = req.WithContext(WithAccountID(req.Context(), accountID))
	rec := httptest.NewRecorder()
	h.Get(rec, req)
	return rec
}

func progressComplete(h *ProgressHandler, accountID, courseType string, lesson int) *httptest.ResponseRecorder {
	body := fmt.Sprintf(`{"lesson":%d}`, lesson)
	req := httptest.NewRequest("POST", "/api/progress/"+courseType+"/complete-lesson", strings.NewReader(body))
	req.SetPathValue("courseType", courseType)
	req = req.WithContext(WithAccountID(req.Context(), accountID))
	rec := httptest.NewRecorder()
	h.CompleteLesson(rec, req)
	return rec
}

func TestProgressGetCreatesRow(t *testing.T) {
	e := newTestEnv(t)
	h := NewProgressHandler(e.purchases, e.progress, e.logger)
	accountID := e.createAccount(t, "alice@example.com")
	e.purchases.Create(accountID, course.Coparenting, 5999, "", "")

	rec := progressGet(h, accountID, "coparenting")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	cp, err := e.progress.GetByAccountAndType(accountID, course.Coparenting)
	if err != nil || cp == nil {
		t.Fatalf("progress row should exist after first access: %v", err)
	}
	if cp.CurrentLesson != 1 {
		t.Errorf("current_lesson = %d, want 1", cp.CurrentLesson)
	}
}

func TestProgressRequiresEntitlement(t *testing.T) {
	e := newTestEnv(t)
	h := NewProgressHandler(e.purchases, e.progress, e.logger)
	accountID := e.createAccount(t, "alice@example.com")

	rec := progressGet(h, accountID, "coparenting")
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403 without a purchase", rec.Code)
	}
}

func TestProgressRejectsBundlePath(t *testing.T) {
	e := newTestEnv(t)
	h := NewProgressHandler(e.purchases, e.progress, e.logger)
	accountID := e.createAccount(t, "alice@example.com")
	e.purchases.Create(accountID, course.Bundle, 9999, "", "")

	// Progress is tracked per single course; the bundle is not a course.
	rec := progressGet(h, accountID, "bundle")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for the bundle pseudo-course", rec.Code)
	}
}

func TestCompleteLessonHandler(t *testing.T) {
	e := newTestEnv(t)
	h := NewProgressHandler(e.purchases, e.progress, e.logger)
	accountID := e.createAccount(t, "alice@example.com")
	e.purchases.Create(accountID, course.Coparenting, 5999, "", "")

	rec := progressComplete(h, accountID, "coparenting", 1)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		CurrentLesson    int   `json:"current_lesson"`
		LessonsCompleted []int `json:"lessons_completed"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.CurrentLesson != 2 || len(resp.LessonsCompleted) != 1 {
		t.Errorf("response = %+v, want lesson advanced to 2", resp)
	}
}

func TestCompleteLessonOutOfRange(t *testing.T) {
	e := newTestEnv(t)
	h := NewProgressHandler(e.purchases, e.progress, e.logger)
	accountID := e.createAccount(t, "alice@example.com")
	e.purchases.Create(accountID, course.Coparenting, 5999, "", "")

	for _, lesson := range []int{0, -1, course.LessonCount + 1} {
		rec := progressComplete(h, accountID, "coparenting", lesson)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("lesson %d: status = %d, want 400", lesson, rec.Code)
		}
	}
}
