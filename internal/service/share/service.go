package share

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/vedicvivaha/backend/internal/app"
	"github.com/vedicvivaha/backend/internal/auth"
	"github.com/vedicvivaha/backend/internal/db"
	apperrors "github.com/vedicvivaha/backend/internal/errors"
	"github.com/vedicvivaha/backend/internal/httpx"
	"github.com/vedicvivaha/backend/internal/profileview"
	"github.com/vedicvivaha/backend/internal/repository"
)

const (
	defaultExpiryDays = 7
	maxExpiryDays     = 365
)

// Service implements the share-link lifecycle: an authenticated member issues
// a time-limited public link to their own profile, anyone with the token may
// view it, and only the owner may revoke it.
type Service struct {
	appCtx     *app.AppContext
	auth       *auth.Authenticator
	shareRepo  *repository.ShareRepository
	memberRepo *repository.MemberRepository
}

// NewService creates the share-link service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:     appCtx,
		auth:       auth.New(appCtx.DB, appCtx.Config),
		shareRepo:  repository.NewShareRepository(appCtx.DB),
		memberRepo: repository.NewMemberRepository(appCtx.DB),
	}
}

type createRequest struct {
	ExpiresInDays         int  `json:"expires_in_days"`
	IncludeContactDetails bool `json:"include_contact_details"`
}

type createResponse struct {
	Token                 string    `json:"token"`
	SharePath             string    `json:"share_path"`
	ExpiresAt             time.Time `json:"expires_at"`
	IncludeContactDetails bool      `json:"include_contact_details"`
	LinkStatus            string    `json:"link_status"`
}

type publicResponse struct {
	Profile               profileview.Shared `json:"profile"`
	ExpiresAt             time.Time          `json:"expires_at"`
	LinkStatus            string             `json:"link_status"`
	IncludeContactDetails bool               `json:"include_contact_details"`
}

type revokeResponse struct {
	Message    string `json:"message"`
	LinkStatus string `json:"link_status"`
}

// Create serves POST /profile/share: issue a link for the caller's own profile.
func (s *Service) Create(w http.ResponseWriter, r *http.Request) {
	member, err := s.auth.RequireMember(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	req := createRequest{ExpiresInDays: defaultExpiryDays}
	if r.Body != nil && r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteDetail(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}
	if req.ExpiresInDays < 1 {
		req.ExpiresInDays = defaultExpiryDays
	}
	if req.ExpiresInDays > maxExpiryDays {
		req.ExpiresInDays = maxExpiryDays
	}

	link, err := s.shareRepo.Create(r.Context(), member.MemberID, req.ExpiresInDays, req.IncludeContactDetails)
	if err != nil {
		s.appCtx.Logger.Error("share link creation failed", "member", member.MemberID, "err", err)
		httpx.WriteError(w, err)
		return
	}

	s.appCtx.Logger.Info("share link created",
		"member", member.MemberID, "expires_at", link.ExpiresAt, "contact", link.IncludeContactDetails)

	httpx.WriteJSON(w, http.StatusOK, createResponse{
		Token:                 link.Token,
		SharePath:             "/profile/share/" + link.Token,
		ExpiresAt:             link.ExpiresAt,
		IncludeContactDetails: link.IncludeContactDetails,
		LinkStatus:            link.Status(time.Now().UTC()),
	})
}

// Resolve serves GET /profile/share/{token}, the anonymous public view.
// Unknown tokens are 404; revoked or expired links are a distinct 410 so the
// viewer knows the link existed but its content is withheld.
func (s *Service) Resolve(w http.ResponseWriter, r *http.Request) {
	tok := mux.Vars(r)["token"]

	link, err := s.shareRepo.GetByToken(r.Context(), tok)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.WriteError(w, apperrors.WithDetail(apperrors.ErrNotFound, "Share link not found"))
			return
		}
		httpx.WriteError(w, err)
		return
	}

	switch link.Status(time.Now().UTC()) {
	case db.ShareStatusRevoked:
		httpx.WriteError(w, apperrors.WithDetail(apperrors.ErrLinkGone, "Share link has been disabled"))
		return
	case db.ShareStatusExpired:
		httpx.WriteError(w, apperrors.WithDetail(apperrors.ErrLinkGone, "Share link has expired"))
		return
	}

	owner, err := s.memberRepo.GetByMemberID(r.Context(), link.MemberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.WriteError(w, apperrors.WithDetail(apperrors.ErrNotFound, "Shared profile unavailable"))
			return
		}
		httpx.WriteError(w, err)
		return
	}

	// access counting, not gating
	if err := s.shareRepo.MarkAccessed(r.Context(), link); err != nil {
		s.appCtx.Logger.Warn("failed to record share access", "err", err)
	}

	httpx.WriteJSON(w, http.StatusOK, publicResponse{
		Profile:               profileview.NewShared(owner, link.IncludeContactDetails),
		ExpiresAt:             link.ExpiresAt,
		LinkStatus:            db.ShareStatusActive,
		IncludeContactDetails: link.IncludeContactDetails,
	})
}

// Revoke serves DELETE /profile/share/{token}. Ownership mismatch and missing
// token both surface as not-found so non-owners learn nothing; revoking twice
// is a no-op.
func (s *Service) Revoke(w http.ResponseWriter, r *http.Request) {
	member, err := s.auth.RequireMember(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	tok := mux.Vars(r)["token"]
	link, err := s.shareRepo.GetByToken(r.Context(), tok)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		httpx.WriteError(w, err)
		return
	}
	if err != nil || link.MemberID != member.MemberID {
		httpx.WriteError(w, apperrors.WithDetail(apperrors.ErrNotFound, "Share link not found"))
		return
	}

	if err := s.shareRepo.Revoke(r.Context(), link); err != nil {
		httpx.WriteError(w, err)
		return
	}

	s.appCtx.Logger.Info("share link revoked", "member", member.MemberID)

	httpx.WriteJSON(w, http.StatusOK, revokeResponse{
		Message:    "Share link disabled",
		LinkStatus: link.Status(time.Now().UTC()),
	})
}
