// Package certificate issues completion certificates and handles their
// downstream notifications. A certificate is an immutable audit record: it is
// never updated or deleted once created.
package certificate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rowanvale/bridgewell/internal/archive"
	"github.com/rowanvale/bridgewell/internal/course"
	"github.com/rowanvale/bridgewell/internal/email"
	"github.com/rowanvale/bridgewell/internal/identity"
	"github.com/rowanvale/bridgewell/internal/model"
	"github.com/rowanvale/bridgewell/internal/store"
)

type Service struct {
	certificates *store.CertificateStore
	profiles     *store.ProfileStore
	attorneys    *store.AttorneyStore
	identity     *identity.Store
	emailClient  *email.Client
	uploader     *archive.Uploader
	logger       *slog.Logger
}

func NewService(
	cs *store.CertificateStore,
	ps *store.ProfileStore,
	as *store.AttorneyStore,
	ids *identity.Store,
	ec *email.Client,
	up *archive.Uploader,
	logger *slog.Logger,
) *Service {
	return &Service{
		certificates: cs,
		profiles:     ps,
		attorneys:    as,
		identity:     ids,
		emailClient:  ec,
		uploader:     up,
		logger:       logger,
	}
}

// Issue creates the certificate for (account, course type) if one does not
// already exist; issuance is idempotent and returns the existing record
// otherwise. Attorney notification and archive upload are best-effort.
func (s *Service) Issue(ctx context.Context, accountID string, t course.Type) (*model.Certificate, error) {
	existing, err := s.certificates.GetByAccountAndType(accountID, t)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	name, attorneyEmail := s.participantDetails(accountID)
	cert, err := s.certificates.Create(accountID, t, name)
	if err != nil {
		return nil, fmt.Errorf("issue certificate: %w", err)
	}

	s.logger.Info("certificate issued",
		"account_id", accountID,
		"course_type", string(t),
		"number", cert.CertificateNumber,
	)

	if attorneyEmail != "" && s.emailClient != nil && s.emailClient.Configured() {
		if err := s.emailClient.SendCertificateNotice(attorneyEmail, cert.ParticipantName, t.Label(), cert.CertificateNumber, cert.VerificationCode); err != nil {
			s.logger.Error("attorney notification failed", "error", err, "number", cert.CertificateNumber)
		} else if att, err := s.attorneys.GetByEmail(attorneyEmail); err == nil && att != nil {
			if err := s.attorneys.IncrementReferral(att.ID); err != nil {
				s.logger.Error("increment attorney referral", "error", err)
			}
		}
	}

	if s.uploader != nil && s.uploader.Enabled() {
		if err := s.uploader.StoreCertificate(ctx, cert); err != nil {
			s.logger.Error("certificate archive upload failed", "error", err, "number", cert.CertificateNumber)
		}
	}

	return cert, nil
}

// participantDetails resolves the name to print on the certificate and the
// attorney email to notify. Falls back from profile legal name to the email
// local part when no profile exists.
func (s *Service) participantDetails(accountID string) (name, attorneyEmail string) {
	profile, err := s.profiles.GetByAccountID(accountID)
	if err != nil {
		s.logger.Error("load profile for issuance", "error", err)
	}
	if profile != nil {
		if profile.LegalName != nil {
			name = *profile.LegalName
		}
		if profile.AttorneyEmail != nil {
			attorneyEmail = *profile.AttorneyEmail
		}
	}
	if name == "" {
		if account, err := s.identity.GetByID(accountID); err == nil && account != nil {
			name = account.Email
			if i := strings.IndexByte(name, '@'); i > 0 {
				name = name[:i]
			}
		}
	}
	if name == "" {
		name = "Not provided"
	}
	return name, attorneyEmail
}
