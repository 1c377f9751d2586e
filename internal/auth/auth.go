// Package auth resolves bearer credentials for member and admin endpoints.
package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/vedicvivaha/backend/internal/config"
	"github.com/vedicvivaha/backend/internal/db"
	apperrors "github.com/vedicvivaha/backend/internal/errors"
	"github.com/vedicvivaha/backend/internal/repository"
	"github.com/vedicvivaha/backend/internal/token"
)

// Authenticator turns an Authorization header into a resolved member, or into
// a categorized rejection. Admin requests are checked against the static
// configured token in constant time.
type Authenticator struct {
	members       *repository.MemberRepository
	sessionSecret string
	adminToken    string
}

func New(database *gorm.DB, cfg *config.Config) *Authenticator {
	return &Authenticator{
		members:       repository.NewMemberRepository(database),
		sessionSecret: cfg.Session.Secret,
		adminToken:    cfg.Admin.Token,
	}
}

// bearerToken extracts the credential from the Authorization header.
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", apperrors.WithDetail(apperrors.ErrUnauthorized, "Missing Authorization header")
	}
	scheme, value, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", apperrors.WithDetail(apperrors.ErrUnauthorized, "Invalid auth header format")
	}
	return strings.TrimSpace(value), nil
}

// RequireMember authenticates a member session request.
//
// Failure categories: missing header, malformed header, invalid token, member
// not found (all ErrUnauthorized with distinct messages) and inactive account
// (ErrAccountDisabled, with a remediation message).
func (a *Authenticator) RequireMember(r *http.Request) (*db.Member, error) {
	credential, err := bearerToken(r)
	if err != nil {
		return nil, err
	}

	memberID, ok := token.Verify(credential, a.sessionSecret)
	if !ok {
		return nil, apperrors.WithDetail(apperrors.ErrUnauthorized, "Invalid session token")
	}

	member, err := a.members.GetByMemberID(r.Context(), memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.WithDetail(apperrors.ErrUnauthorized, "Member not found")
		}
		return nil, err
	}
	if !member.Active {
		return nil, apperrors.WithDetail(apperrors.ErrAccountDisabled, "Your account is disabled. Contact support.")
	}
	return member, nil
}

// RequireAdmin checks the bearer value against the configured admin token.
func (a *Authenticator) RequireAdmin(r *http.Request) error {
	credential, err := bearerToken(r)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(credential), []byte(a.adminToken)) != 1 {
		return apperrors.WithDetail(apperrors.ErrUnauthorized, "Invalid admin token")
	}
	return nil
}
