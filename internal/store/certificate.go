package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/rowanvale/bridgewell/internal/course"
	"github.com/rowanvale/bridgewell/internal/model"
)

type CertificateStore struct {
	db *sql.DB
}

func NewCertificateStore(db *sql.DB) *CertificateStore {
	return &CertificateStore{db: db}
}

func scanCertificate(scanner interface{ Scan(...any) error }) (*model.Certificate, error) {
	var c model.Certificate
	var courseType string
	err := scanner.Scan(
		&c.ID, &c.AccountID, &courseType, &c.CertificateNumber,
		&c.VerificationCode, &c.ParticipantName, &c.IssuedAt,
	)
	if err != nil {
		return nil, err
	}
	c.CourseType = course.Type(courseType)
	return &c, nil
}

const certificateCols = `id, account_id, course_type, certificate_number, verification_code, participant_name, issued_at`

// generateVerificationCode creates a 10-character uppercase hex code. Codes
// are stored uppercase and compared case-insensitively on lookup.
func generateVerificationCode() (string, error) {
	b := make([]byte, 5)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}

// Create issues a new certificate row. The certificate number is derived from
// the row id after insert (BW-<year>-<seq>), which keeps numbers sequential
// without a separate counter table.
func (s *CertificateStore) Create(accountID string, t course.Type, participantName string) (*model.Certificate, error) {
	code, err := generateVerificationCode()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	placeholder := "pending-" + code
	result, err := s.db.Exec(
		`INSERT INTO certificates (account_id, course_type, certificate_number, verification_code, participant_name, issued_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		accountID, string(t), placeholder, code, participantName, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert certificate: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	number := fmt.Sprintf("BW-%d-%06d", now.Year(), id)
	if _, err := s.db.Exec(`UPDATE certificates SET certificate_number = ? WHERE id = ?`, number, id); err != nil {
		return nil, fmt.Errorf("assign certificate number: %w", err)
	}
	return s.GetByID(id)
}

func (s *CertificateStore) GetByID(id int64) (*model.Certificate, error) {
	row := s.db.QueryRow(`SELECT `+certificateCols+` FROM certificates WHERE id = ?`, id)
	c, err := scanCertificate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get certificate: %w", err)
	}
	return c, nil
}

// GetByCode looks up a certificate by verification code, case-insensitively.
func (s *CertificateStore) GetByCode(code string) (*model.Certificate, error) {
	row := s.db.QueryRow(
		`SELECT `+certificateCols+` FROM certificates WHERE verification_code = UPPER(?)`,
		code,
	)
	c, err := scanCertificate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get certificate by code: %w", err)
	}
	return c, nil
}

func (s *CertificateStore) GetByAccountAndType(accountID string, t course.Type) (*model.Certificate, error) {
	row := s.db.QueryRow(
		`SELECT `+certificateCols+` FROM certificates WHERE account_id = ? AND course_type = ?`,
		accountID, string(t),
	)
	c, err := scanCertificate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get certificate by account: %w", err)
	}
	return c, nil
}

func (s *CertificateStore) ListByAccount(accountID string) ([]model.Certificate, error) {
	rows, err := s.db.Query(
		`SELECT `+certificateCols+` FROM certificates WHERE account_id = ? ORDER BY issued_at ASC`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("list certificates by account: %w", err)
	}
	defer rows.Close()
	return collectCertificates(rows)
}

func (s *CertificateStore) ListAll() ([]model.Certificate, error) {
	rows, err := s.db.Query(`SELECT ` + certificateCols + ` FROM certificates`)
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	defer rows.Close()
	return collectCertificates(rows)
}

func collectCertificates(rows *sql.Rows) ([]model.Certificate, error) {
	var certs []model.Certificate
	for rows.Next() {
		c, err := scanCertificate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan certificate: %w", err)
		}
		certs = append(certs, *c)
	}
	return certs, rows.Err()
}
