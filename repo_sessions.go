package session

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SessionRecords is the sqlite-backed TokenCache. Record identifiers are
// derived deterministically from the account key so repeated saves hit the
// same row.
type SessionRecords struct {
	repo   repository.Repository[*PersistedSession]
	logger Logger
}

var _ TokenCache = (*SessionRecords)(nil)

// NewSessionRecords builds the persisted session repository on top of a bun
// database handle.
func NewSessionRecords(db *bun.DB) *SessionRecords {
	handlers := repository.ModelHandlers[*PersistedSession]{
		NewRecord: func() *PersistedSession {
			return &PersistedSession{}
		},
		GetID: func(record *PersistedSession) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *PersistedSession, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "account_key"
		},
	}

	return &SessionRecords{
		repo:   repository.NewRepository(db, handlers),
		logger: defLogger{},
	}
}

func (s *SessionRecords) WithLogger(logger Logger) *SessionRecords {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Load returns the cached token for an account, or an error when none is
// held.
func (s *SessionRecords) Load(ctx context.Context, accountKey string) (string, error) {
	record, err := s.repo.GetByIdentifier(ctx, accountKey)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return "", ErrNoToken
		}
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load persisted session")
	}

	if record.Token == "" {
		return "", ErrNoToken
	}
	return record.Token, nil
}

// Save upserts the last known good token for an account. Claim attributes
// are denormalized alongside for operational inspection.
func (s *SessionRecords) Save(ctx context.Context, accountKey, token string) error {
	now := time.Now()

	record, err := s.repo.GetByIdentifier(ctx, accountKey)
	if err != nil {
		if !repository.IsRecordNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read persisted session")
		}

		record = &PersistedSession{
			AccountKey: accountKey,
			CreatedAt:  &now,
		}
		if id, hashErr := hashid.NewUUID(accountKey); hashErr == nil {
			record.ID = id
		}
		s.applyClaims(record, token)
		record.Token = token
		record.UpdatedAt = &now

		if _, err := s.repo.Create(ctx, record); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create persisted session")
		}
		return nil
	}

	record.Token = token
	record.UpdatedAt = &now
	s.applyClaims(record, token)

	if _, err := s.repo.Update(ctx, record); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update persisted session")
	}
	return nil
}

// Delete clears the cached token for an account. The row is retained with
// an empty token so the audit trail of when a session last existed stays.
func (s *SessionRecords) Delete(ctx context.Context, accountKey string) error {
	record, err := s.repo.GetByIdentifier(ctx, accountKey)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read persisted session")
	}

	now := time.Now()
	record.Token = ""
	record.UpdatedAt = &now

	if _, err := s.repo.Update(ctx, record); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to clear persisted session")
	}
	return nil
}

func (s *SessionRecords) applyClaims(record *PersistedSession, token string) {
	claims, ok := DecodeTenantClaims(token)
	if !ok {
		return
	}
	record.TenantType = string(claims.TenantType())
	record.UserRole = string(claims.Role())
	record.TenantID = claims.TenantID()
}
