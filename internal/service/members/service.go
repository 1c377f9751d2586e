package members

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/vedicvivaha/backend/internal/app"
	"github.com/vedicvivaha/backend/internal/auth"
	"github.com/vedicvivaha/backend/internal/cache"
	"github.com/vedicvivaha/backend/internal/db"
	apperrors "github.com/vedicvivaha/backend/internal/errors"
	"github.com/vedicvivaha/backend/internal/httpx"
	"github.com/vedicvivaha/backend/internal/profileview"
	"github.com/vedicvivaha/backend/internal/repository"
	"github.com/vedicvivaha/backend/internal/utils/pagination"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Service implements the member-facing browse and unlock endpoints.
// It layers ledger state and credit spending on top of the member directory.
type Service struct {
	appCtx     *app.AppContext
	auth       *auth.Authenticator
	memberRepo *repository.MemberRepository
	accessRepo *repository.AccessRepository
}

// NewService creates the browse/unlock service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:     appCtx,
		auth:       auth.New(appCtx.DB, appCtx.Config),
		memberRepo: repository.NewMemberRepository(appCtx.DB),
		accessRepo: repository.NewAccessRepository(appCtx.DB),
	}
}

type listResponse struct {
	Items            []profileview.Basic `json:"items"`
	CreditsRemaining int                 `json:"credits_remaining"`
	Total            int64               `json:"total"`
	Page             int                 `json:"page"`
	PageSize         int                 `json:"page_size"`
	TotalPages       int                 `json:"total_pages"`
}

type detailResponse struct {
	Profile          profileview.Basic        `json:"profile"`
	FullDetails      *profileview.FullDetails `json:"full_details"`
	CreditsRemaining int                      `json:"credits_remaining"`
}

type unlockResponse struct {
	Message          string                   `json:"message"`
	Profile          profileview.Basic        `json:"profile"`
	FullDetails      *profileview.FullDetails `json:"full_details"`
	CreditsRemaining int                      `json:"credits_remaining"`
}

// candidateTotal is cache-first: the viewer's browse total lives in Redis
// under a 1h TTL with the DB as fallback, and the TTL refreshes while the
// viewer stays active.
func (s *Service) candidateTotal(ctx context.Context, viewerID, targetGender string) (int64, error) {
	key := s.appCtx.RedisCache.KeyForCandidateCount(viewerID)

	if cached, _ := s.appCtx.RedisCache.Get(ctx, key); cached != "" {
		if n, err := strconv.ParseInt(cached, 10, 64); err == nil {
			_ = s.appCtx.RedisCache.Expire(ctx, key, cache.CandidateCountTTL)
			return n, nil
		}
	}

	total, err := s.memberRepo.CountCandidates(ctx, viewerID, targetGender)
	if err != nil {
		return 0, err
	}
	_ = s.appCtx.RedisCache.Set(ctx, key, strconv.FormatInt(total, 10), cache.CandidateCountTTL)
	return total, nil
}

// ListRecent serves GET /member-profiles/recent: the filtered, paginated,
// gender-reciprocal candidate list with per-card unlock state.
func (s *Service) ListRecent(w http.ResponseWriter, r *http.Request) {
	member, err := s.auth.RequireMember(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))
	p := pagination.Normalize(page, pageSize, defaultPageSize, maxPageSize)

	targetGender := repository.TargetGenderFor(member.Gender)
	s.appCtx.Logger.Debug("ListRecent called",
		"viewer", member.MemberID, "target_gender", targetGender, "page", p.Page)

	total, err := s.candidateTotal(r.Context(), member.MemberID, targetGender)
	if err != nil {
		s.appCtx.Logger.Error("CountCandidates failed", "err", err)
		httpx.WriteError(w, err)
		return
	}

	candidates, err := s.memberRepo.ListCandidates(r.Context(), member.MemberID, targetGender, p)
	if err != nil {
		s.appCtx.Logger.Error("ListCandidates failed", "err", err)
		httpx.WriteError(w, err)
		return
	}

	// one batched ledger fetch per request, then set membership per card
	unlocked, err := s.accessRepo.UnlockedProfileIDs(r.Context(), member.MemberID)
	if err != nil {
		s.appCtx.Logger.Error("UnlockedProfileIDs failed", "err", err)
		httpx.WriteError(w, err)
		return
	}

	items := make([]profileview.Basic, 0, len(candidates))
	for i := range candidates {
		items = append(items, profileview.NewBasic(&candidates[i], unlocked[candidates[i].MemberID]))
	}

	httpx.WriteJSON(w, http.StatusOK, listResponse{
		Items:            items,
		CreditsRemaining: member.Credits,
		Total:            total,
		Page:             p.Page,
		PageSize:         p.PageSize,
		TotalPages:       pagination.TotalPages(total, p.PageSize),
	})
}

// getCandidate loads a profile through the browse predicate, folding every
// miss (nonexistent, inactive, wrong gender) into the same not-found.
func (s *Service) getCandidate(r *http.Request, viewer *db.Member, profileID string) (*db.Member, error) {
	targetGender := repository.TargetGenderFor(viewer.Gender)
	profile, err := s.memberRepo.GetCandidate(r.Context(), viewer.MemberID, targetGender, profileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.WithDetail(apperrors.ErrNotFound, "Profile not found")
		}
		return nil, err
	}
	return profile, nil
}

// GetDetail serves GET /member-profiles/{profileId}. Full details are
// included only when the viewer has unlocked the profile.
func (s *Service) GetDetail(w http.ResponseWriter, r *http.Request) {
	member, err := s.auth.RequireMember(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	profileID := mux.Vars(r)["profileId"]
	profile, err := s.getCandidate(r, member, profileID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	isUnlocked, err := s.accessRepo.HasUnlocked(r.Context(), member.MemberID, profile.MemberID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	var full *profileview.FullDetails
	if isUnlocked {
		full = profileview.NewFullDetails(profile)
	}

	httpx.WriteJSON(w, http.StatusOK, detailResponse{
		Profile:          profileview.NewBasic(profile, isUnlocked),
		FullDetails:      full,
		CreditsRemaining: member.Credits,
	})
}

// Unlock serves POST /member-profiles/{profileId}/unlock: spend one credit
// for permanent full-detail access. Idempotent per (member, profile) pair.
func (s *Service) Unlock(w http.ResponseWriter, r *http.Request) {
	member, err := s.auth.RequireMember(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	profileID := mux.Vars(r)["profileId"]
	profile, err := s.getCandidate(r, member, profileID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	created, remaining, err := s.accessRepo.Unlock(r.Context(), member.MemberID, profile.MemberID)
	if err != nil {
		if errors.Is(err, apperrors.ErrInsufficientCredits) {
			httpx.WriteError(w, apperrors.WithDetail(apperrors.ErrInsufficientCredits,
				"No credits available to unlock this profile"))
			return
		}
		s.appCtx.Logger.Error("Unlock failed",
			"viewer", member.MemberID, "profile", profile.MemberID, "err", err)
		httpx.WriteError(w, err)
		return
	}

	message := "Full profile already unlocked"
	if created {
		message = "Full profile unlocked successfully"
		s.appCtx.Logger.Info("profile unlocked",
			"viewer", member.MemberID, "profile", profile.MemberID, "credits_remaining", remaining)
	}

	httpx.WriteJSON(w, http.StatusOK, unlockResponse{
		Message:          message,
		Profile:          profileview.NewBasic(profile, true),
		FullDetails:      profileview.NewFullDetails(profile),
		CreditsRemaining: remaining,
	})
}
