package handler

import (
	"database/sql"
	"io"
	"log/slog"
	"testing"

	"github.com/rowanvale/bridgewell/internal/certificate"
	"github.com/rowanvale/bridgewell/internal/database"
	"github.com/rowanvale/bridgewell/internal/identity"
	"github.com/rowanvale/bridgewell/internal/store"
)

type testEnv struct {
	db           *sql.DB
	identity     *identity.Store
	sessions     *store.SessionStore
	profiles     *store.ProfileStore
	purchases    *store.PurchaseStore
	progress     *store.ProgressStore
	exams        *store.ExamStore
	certificates *store.CertificateStore
	attorneys    *store.AttorneyStore
	certSvc      *certificate.Service
	logger       *slog.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := &testEnv{
		db:           db,
		identity:     identity.NewStore(db),
		sessions:     store.NewSessionStore(db),
		profiles:     store.NewProfileStore(db),
		purchases:    store.NewPurchaseStore(db),
		progress:     store.NewProgressStore(db),
		exams:        store.NewExamStore(db),
		certificates: store.NewCertificateStore(db),
		attorneys:    store.NewAttorneyStore(db),
		logger:       logger,
	}
	e.certSvc = certificate.NewService(
		e.certificates, e.profiles, e.attorneys, e.identity, nil, nil, logger,
	)
	return e
}

func (e *testEnv) createAccount(t *testing.T, email string) string {
	t.Helper()
	account, err := e.identity.Create(email, "test-password-1")
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	return account.ID
}
