package db

import (
	"time"
)

// Member is both an account (registration) and a browsable candidate profile.
//
// MemberID is the externally visible identifier ("VV-000042"), derived from the
// internal row id inside the registration transaction. Credits may only be
// decremented by the unlock transaction in AccessRepository.
type Member struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	MemberID     string `gorm:"uniqueIndex;size:24;not null"`
	Name         string `gorm:"size:120;not null"`
	Email        string `gorm:"size:255"`
	Phone        string `gorm:"size:32"`
	PasswordHash string `gorm:"size:255;not null"`
	Gender       string `gorm:"size:32"`
	DOB          string `gorm:"size:32"`
	City         string `gorm:"size:120"`
	Address      string `gorm:"size:500"`
	Education    string `gorm:"size:255"`
	Occupation   string `gorm:"size:255"`
	Gothram      string `gorm:"size:255"`
	Message      string `gorm:"size:1000"`
	Status       string `gorm:"size:32;not null"`
	Active       bool   `gorm:"not null"`
	Credits      int    `gorm:"not null"`
	ExtraData    JSONMap
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// ProfileAccess records that a member has unlocked a profile.
//
// Unique index on (member_id, profile_id): at most one unlock, and therefore at
// most one credit spent, per pair. The index is the backstop for the unlock
// transaction's pre-check under concurrent requests.
type ProfileAccess struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	MemberID     string    `gorm:"size:24;not null;uniqueIndex:uq_member_profile_access,priority:1;index"`
	ProfileID    string    `gorm:"size:24;not null;uniqueIndex:uq_member_profile_access,priority:2"`
	CreditsSpent int       `gorm:"not null"`
	UnlockedAt   time.Time `gorm:"autoCreateTime"`
}

// Share link statuses derived at read time, never stored.
const (
	ShareStatusActive  = "active"
	ShareStatusExpired = "expired"
	ShareStatusRevoked = "revoked"
)

// ShareLink is an unauthenticated, token-addressed public view of a member's
// own profile. The token is a raw high-entropy random value looked up by
// equality; unlike session tokens it carries no signature.
type ShareLink struct {
	ID                    uint64    `gorm:"primaryKey;autoIncrement"`
	MemberID              string    `gorm:"size:24;not null;index"`
	Token                 string    `gorm:"size:160;uniqueIndex;not null"`
	IncludeContactDetails bool      `gorm:"not null"`
	ExpiresAt             time.Time `gorm:"not null"`
	RevokedAt             *time.Time
	LastAccessedAt        *time.Time
	CreatedAt             time.Time `gorm:"autoCreateTime"`
}

// Status derives the link state at the given instant.
// Revocation is terminal and takes precedence over expiry.
func (l *ShareLink) Status(now time.Time) string {
	if l.RevokedAt != nil {
		return ShareStatusRevoked
	}
	if !now.Before(l.ExpiresAt) {
		return ShareStatusExpired
	}
	return ShareStatusActive
}
