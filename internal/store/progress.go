package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rowanvale/bridgewell/internal/course"
	"github.com/rowanvale/bridgewell/internal/model"
)

type ProgressStore struct {
	db *sql.DB
}

func NewProgressStore(db *sql.DB) *ProgressStore {
	return &ProgressStore{db: db}
}

func scanProgress(scanner interface{ Scan(...any) error }) (*model.CourseProgress, error) {
	var cp model.CourseProgress
	var courseType, completed string
	var completedAt sql.NullTime
	err := scanner.Scan(
		&cp.ID, &cp.AccountID, &courseType, &cp.CurrentLesson, &completed,
		&cp.StartedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}
	cp.CourseType = course.Type(courseType)
	cp.LessonsCompleted = parseLessonList(completed)
	if completedAt.Valid {
		cp.CompletedAt = &completedAt.Time
	}
	return &cp, nil
}

const progressCols = `id, account_id, course_type, current_lesson, lessons_completed, started_at, completed_at`

// parseLessonList decodes the comma-joined lesson id column.
func parseLessonList(s string) []int {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	lessons := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			continue
		}
		lessons = append(lessons, n)
	}
	return lessons
}

func joinLessonList(lessons []int) string {
	if len(lessons) == 0 {
		return ""
	}
	parts := make([]string, len(lessons))
	for i, n := range lessons {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

// Create inserts a fresh progress row at lesson 1 with nothing completed.
func (s *ProgressStore) Create(accountID string, t course.Type) (*model.CourseProgress, error) {
	result, err := s.db.Exec(
		`INSERT INTO course_progress (account_id, course_type, current_lesson, lessons_completed, started_at)
		 VALUES (?, ?, 1, '', ?)`,
		accountID, string(t), time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert course progress: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+progressCols+` FROM course_progress WHERE id = ?`, id)
	return scanProgress(row)
}

func (s *ProgressStore) GetByAccountAndType(accountID string, t course.Type) (*model.CourseProgress, error) {
	row := s.db.QueryRow(
		`SELECT `+progressCols+` FROM course_progress WHERE account_id = ? AND course_type = ?`,
		accountID, string(t),
	)
	cp, err := scanProgress(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get course progress: %w", err)
	}
	return cp, nil
}

// CompleteLesson adds a lesson to the completed set (idempotently, keeping the
// set ordered and unique), advances the current lesson pointer, and stamps
// completed_at once every lesson is done. Returns the updated row.
func (s *ProgressStore) CompleteLesson(accountID string, t course.Type, lesson int) (*model.CourseProgress, error) {
	cp, err := s.GetByAccountAndType(accountID, t)
	if err != nil {
		return nil, err
	}
	if cp == nil {
		cp, err = s.Create(accountID, t)
		if err != nil {
			return nil, err
		}
	}

	completed := cp.LessonsCompleted
	found := false
	for _, l := range completed {
		if l == lesson {
			found = true
			break
		}
	}
	if !found {
		inserted := false
		next := make([]int, 0, len(completed)+1)
		for _, l := range completed {
			if !inserted && lesson < l {
				next = append(next, lesson)
				inserted = true
			}
			next = append(next, l)
		}
		if !inserted {
			next = append(next, lesson)
		}
		completed = next
	}

	current := cp.CurrentLesson
	if lesson >= current && lesson < course.LessonCount {
		current = lesson + 1
	}

	var completedAt *time.Time
	if cp.CompletedAt != nil {
		completedAt = cp.CompletedAt
	} else if len(completed) >= course.LessonCount {
		now := time.Now().UTC()
		completedAt = &now
	}

	_, err = s.db.Exec(
		`UPDATE course_progress SET current_lesson = ?, lessons_completed = ?, completed_at = ? WHERE id = ?`,
		current, joinLessonList(completed), completedAt, cp.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update course progress: %w", err)
	}
	return s.GetByAccountAndType(accountID, t)
}

func (s *ProgressStore) Delete(accountID string, t course.Type) error {
	_, err := s.db.Exec(
		`DELETE FROM course_progress WHERE account_id = ? AND course_type = ?`,
		accountID, string(t),
	)
	if err != nil {
		return fmt.Errorf("delete course progress: %w", err)
	}
	return nil
}

func (s *ProgressStore) ListByAccount(accountID string) ([]model.CourseProgress, error) {
	rows, err := s.db.Query(
		`SELECT `+progressCols+` FROM course_progress WHERE account_id = ?`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("list course progress: %w", err)
	}
	defer rows.Close()

	var progress []model.CourseProgress
	for rows.Next() {
		cp, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan course progress: %w", err)
		}
		progress = append(progress, *cp)
	}
	return progress, rows.Err()
}
