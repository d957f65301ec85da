package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rowanvale/bridgewell/internal/model"
)

type ProfileStore struct {
	db *sql.DB
}

func NewProfileStore(db *sql.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

func scanProfile(scanner interface{ Scan(...any) error }) (*model.Profile, error) {
	var p model.Profile
	var legalName, courtState, courtCounty, caseNumber, attorneyName, attorneyEmail, phone sql.NullString
	err := scanner.Scan(
		&p.AccountID, &legalName, &courtState, &courtCounty, &caseNumber,
		&attorneyName, &attorneyEmail, &phone, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.LegalName = nullableString(legalName)
	p.CourtState = nullableString(courtState)
	p.CourtCounty = nullableString(courtCounty)
	p.CaseNumber = nullableString(caseNumber)
	p.AttorneyName = nullableString(attorneyName)
	p.AttorneyEmail = nullableString(attorneyEmail)
	p.Phone = nullableString(phone)
	return &p, nil
}

func nullableString(ns sql.NullString) *string {
	if ns.Valid && ns.String != "" {
		return &ns.String
	}
	return nil
}

const profileCols = `account_id, legal_name, court_state, court_county, case_number, attorney_name, attorney_email, phone, created_at, updated_at`

// ProfileFields holds the user-editable profile attributes. Empty strings are
// stored as NULL.
type ProfileFields struct {
	LegalName     string
	CourtState    string
	CourtCounty   string
	CaseNumber    string
	AttorneyName  string
	AttorneyEmail string
	Phone         string
}

// Upsert creates or updates the profile row for the account.
func (s *ProfileStore) Upsert(accountID string, f ProfileFields) (*model.Profile, error) {
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`INSERT INTO profiles (account_id, legal_name, court_state, court_county, case_number, attorney_name, attorney_email, phone, updated_at)
		 VALUES (?, nullif(?, ''), nullif(?, ''), nullif(?, ''), nullif(?, ''), nullif(?, ''), nullif(?, ''), nullif(?, ''), ?)
		 ON CONFLICT(account_id) DO UPDATE SET
		 	legal_name = nullif(excluded.legal_name, ''),
		 	court_state = nullif(excluded.court_state, ''),
		 	court_county = nullif(excluded.court_county, ''),
		 	case_number = nullif(excluded.case_number, ''),
		 	attorney_name = nullif(excluded.attorney_name, ''),
		 	attorney_email = nullif(excluded.attorney_email, ''),
		 	phone = nullif(excluded.phone, ''),
		 	updated_at = excluded.updated_at`,
		accountID, f.LegalName, f.CourtState, f.CourtCounty, f.CaseNumber,
		f.AttorneyName, f.AttorneyEmail, f.Phone, now,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	return s.GetByAccountID(accountID)
}

func (s *ProfileStore) GetByAccountID(accountID string) (*model.Profile, error) {
	row := s.db.QueryRow(`SELECT `+profileCols+` FROM profiles WHERE account_id = ?`, accountID)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// Search matches profiles whose legal name or phone contains the query.
func (s *ProfileStore) Search(query string) ([]model.Profile, error) {
	like := "%" + query + "%"
	rows, err := s.db.Query(
		`SELECT `+profileCols+` FROM profiles WHERE legal_name LIKE ? OR phone LIKE ?`,
		like, like,
	)
	if err != nil {
		return nil, fmt.Errorf("search profiles: %w", err)
	}
	defer rows.Close()

	var profiles []model.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

func (s *ProfileStore) ListAll() ([]model.Profile, error) {
	rows, err := s.db.Query(`SELECT ` + profileCols + ` FROM profiles`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []model.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}
