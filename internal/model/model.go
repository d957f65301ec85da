package model

import (
	"time"

	"github.com/rowanvale/bridgewell/internal/course"
)

const PurchaseStatusActive = "active"

type Account struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	ConfirmedAt *time.Time `json:"confirmed_at"`
	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

type Profile struct {
	AccountID     string    `json:"account_id"`
	LegalName     *string   `json:"legal_name"`
	CourtState    *string   `json:"court_state"`
	CourtCounty   *string   `json:"court_county"`
	CaseNumber    *string   `json:"case_number"`
	AttorneyName  *string   `json:"attorney_name"`
	AttorneyEmail *string   `json:"attorney_email"`
	Phone         *string   `json:"phone"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Purchase struct {
	ID               int64       `json:"id"`
	AccountID        string      `json:"account_id"`
	CourseType       course.Type `json:"course_type"`
	Status           string      `json:"status"`
	AmountPaid       int64       `json:"amount_paid"`
	StripeCustomerID *string     `json:"stripe_customer_id"`
	StripeSessionID  *string     `json:"stripe_session_id"`
	HasSwapped       bool        `json:"has_swapped"`
	PurchasedAt      time.Time   `json:"purchased_at"`
}

type CourseProgress struct {
	ID               int64       `json:"id"`
	AccountID        string      `json:"account_id"`
	CourseType       course.Type `json:"course_type"`
	CurrentLesson    int         `json:"current_lesson"`
	LessonsCompleted []int       `json:"lessons_completed"`
	StartedAt        time.Time   `json:"started_at"`
	CompletedAt      *time.Time  `json:"completed_at"`
}

type ExamAttempt struct {
	ID         int64     `json:"id"`
	AccountID  string    `json:"account_id"`
	PurchaseID int64     `json:"purchase_id"`
	Score      int       `json:"score"`
	Passed     bool      `json:"passed"`
	StartedAt  time.Time `json:"started_at"`
}

type Certificate struct {
	ID                int64       `json:"id"`
	AccountID         string      `json:"account_id"`
	CourseType        course.Type `json:"course_type"`
	CertificateNumber string      `json:"certificate_number"`
	VerificationCode  string      `json:"verification_code"`
	ParticipantName   string      `json:"participant_name"`
	IssuedAt          time.Time   `json:"issued_at"`
}

type Attorney struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Firm          *string   `json:"firm"`
	Email         *string   `json:"email"`
	ReferralCount int       `json:"referral_count"`
	CardsSent     int       `json:"cards_sent"`
	CreatedAt     time.Time `json:"created_at"`
}

type Session struct {
	ID        int64     `json:"id"`
	Token     string    `json:"token"`
	AccountID string    `json:"account_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
