package repository

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/vedicvivaha/backend/internal/db"
	apperrors "github.com/vedicvivaha/backend/internal/errors"
)

const (
	shareTokenBytes  = 32
	maxTokenAttempts = 8
)

// ShareRepository persists public profile share links.
type ShareRepository struct {
	db *gorm.DB
}

// NewShareRepository creates a new repository bound to the given DB connection.
func NewShareRepository(database *gorm.DB) *ShareRepository {
	return &ShareRepository{db: database}
}

func newShareToken() (string, error) {
	buf := make([]byte, shareTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Create issues a share link for the member's own profile.
//
// Token generation retries up to maxTokenAttempts on a collision (pre-check
// plus the unique index as backstop). With 256-bit tokens collisions are not a
// realistic failure path; the bound only caps pathological retry loops, and
// exhausting it surfaces as ErrTokenGeneration, a configuration-level fault.
func (r *ShareRepository) Create(
	ctx context.Context,
	memberID string,
	expiresInDays int,
	includeContactDetails bool,
) (*db.ShareLink, error) {
	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		token, err := newShareToken()
		if err != nil {
			return nil, err
		}

		var count int64
		if err := r.db.WithContext(ctx).Model(&db.ShareLink{}).
			Where("token = ?", token).
			Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			continue
		}

		link := db.ShareLink{
			MemberID:              memberID,
			Token:                 token,
			IncludeContactDetails: includeContactDetails,
			ExpiresAt:             time.Now().UTC().Add(time.Duration(expiresInDays) * 24 * time.Hour),
		}
		if err := r.db.WithContext(ctx).Create(&link).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				continue
			}
			return nil, err
		}
		return &link, nil
	}
	return nil, apperrors.ErrTokenGeneration
}

// GetByToken looks a link up by its token.
func (r *ShareRepository) GetByToken(ctx context.Context, token string) (*db.ShareLink, error) {
	var link db.ShareLink
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&link).Error
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// MarkAccessed records a successful public fetch. Access counting, not gating.
func (r *ShareRepository) MarkAccessed(ctx context.Context, link *db.ShareLink) error {
	now := time.Now().UTC()
	link.LastAccessedAt = &now
	return r.db.WithContext(ctx).Model(link).Update("last_accessed_at", now).Error
}

// Revoke permanently disables a link. Revoking an already-revoked link is a
// no-op that leaves the original revocation time in place.
func (r *ShareRepository) Revoke(ctx context.Context, link *db.ShareLink) error {
	if link.RevokedAt != nil {
		return nil
	}
	now := time.Now().UTC()
	link.RevokedAt = &now
	return r.db.WithContext(ctx).Model(link).Update("revoked_at", now).Error
}
