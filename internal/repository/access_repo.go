package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vedicvivaha/backend/internal/db"
	apperrors "github.com/vedicvivaha/backend/internal/errors"
)

// AccessRepository is the access ledger plus the credit unlock transaction.
// It is the only code path allowed to decrement a member's credit balance.
type AccessRepository struct {
	db *gorm.DB
}

// NewAccessRepository creates a new repository bound to the given DB connection.
func NewAccessRepository(database *gorm.DB) *AccessRepository {
	return &AccessRepository{db: database}
}

// UnlockedProfileIDs batch-fetches every profile id the member has unlocked,
// as a set. One query per browse request instead of one per row.
func (r *AccessRepository) UnlockedProfileIDs(ctx context.Context, memberID string) (map[string]bool, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&db.ProfileAccess{}).
		Where("member_id = ?", memberID).
		Pluck("profile_id", &ids).Error
	if err != nil {
		return nil, err
	}

	unlocked := make(map[string]bool, len(ids))
	for _, id := range ids {
		unlocked[id] = true
	}
	return unlocked, nil
}

// HasUnlocked reports whether a ledger entry exists for the pair.
func (r *AccessRepository) HasUnlocked(ctx context.Context, memberID, profileID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.ProfileAccess{}).
		Where("member_id = ? AND profile_id = ?", memberID, profileID).
		Count(&count).Error
	return count > 0, err
}

// Unlock spends one credit to unlock a profile for a member.
//
// The whole sequence runs in a single transaction holding a row lock on the
// member (FOR UPDATE on MySQL; sqlite serializes writers anyway):
//  1. Existing ledger entry → (created=false, current balance), no charge.
//  2. Zero balance → ErrInsufficientCredits, no writes.
//  3. Otherwise insert the ledger entry and decrement credits by exactly 1.
//
// The unique index on (member_id, profile_id) is the backstop: a duplicate-key
// failure means a concurrent unlock won the race, which is reported as
// already-unlocked rather than an error. No refunds, no negative balances.
func (r *AccessRepository) Unlock(ctx context.Context, memberID, profileID string) (bool, int, error) {
	var (
		created   bool
		remaining int
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var member db.Member
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("member_id = ?", memberID).
			First(&member).Error; err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&db.ProfileAccess{}).
			Where("member_id = ? AND profile_id = ?", memberID, profileID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			created = false
			remaining = member.Credits
			return nil
		}

		if member.Credits <= 0 {
			return apperrors.ErrInsufficientCredits
		}

		access := db.ProfileAccess{
			MemberID:     memberID,
			ProfileID:    profileID,
			CreditsSpent: 1,
		}
		if err := tx.Create(&access).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// race lost: the concurrent transaction already
				// debited, so this one charges nothing
				created = false
				remaining = member.Credits
				return nil
			}
			return err
		}

		if err := tx.Model(&db.Member{}).
			Where("member_id = ?", memberID).
			Update("credits", gorm.Expr("credits - 1")).Error; err != nil {
			return err
		}

		created = true
		remaining = member.Credits - 1
		return nil
	})
	if err != nil {
		return false, 0, err
	}
	return created, remaining, nil
}
