package public

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/vedicvivaha/backend/internal/app"
	"github.com/vedicvivaha/backend/internal/httpx"
	"github.com/vedicvivaha/backend/internal/profileview"
	"github.com/vedicvivaha/backend/internal/repository"
)

const (
	defaultTeaserLimit = 8
	maxTeaserLimit     = 20
)

// Service serves the anonymous landing-page teaser: a short, heavily redacted
// list of recently verified profiles. No names, no contact details.
type Service struct {
	appCtx     *app.AppContext
	memberRepo *repository.MemberRepository
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:     appCtx,
		memberRepo: repository.NewMemberRepository(appCtx.DB),
	}
}

type teaserItem struct {
	ProfileID  string `json:"profile_id"`
	Age        *int   `json:"age"`
	Profession string `json:"profession,omitempty"`
	Location   string `json:"location,omitempty"`
	Gothram    string `json:"gothram,omitempty"`
	ImageURL   string `json:"image_url,omitempty"`
}

type teaserResponse struct {
	Items []teaserItem `json:"items"`
}

// ListRecentVerified serves GET /public/profiles/recent-verified.
func (s *Service) ListRecentVerified(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = defaultTeaserLimit
	}
	if limit > maxTeaserLimit {
		limit = maxTeaserLimit
	}

	members, err := s.memberRepo.ListRecentVerified(r.Context(), limit)
	if err != nil {
		s.appCtx.Logger.Error("ListRecentVerified failed", "err", err)
		httpx.WriteError(w, err)
		return
	}

	items := make([]teaserItem, 0, len(members))
	for i := range members {
		m := &members[i]
		extra := m.ExtraData
		items = append(items, teaserItem{
			ProfileID:  m.MemberID,
			Age:        profileview.Age(m.DOB),
			Profession: m.Occupation,
			Location:   firstNonEmpty(m.City, extra.String("currentLocation")),
			Gothram:    m.Gothram,
			ImageURL:   profileview.ImageURL(extra),
		})
	}

	httpx.WriteJSON(w, http.StatusOK, teaserResponse{Items: items})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Registrar ties the public teaser endpoint into the API router
type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

func (reg *Registrar) Register(r *mux.Router) {
	service := NewService(reg.appCtx)
	r.HandleFunc("/public/profiles/recent-verified", service.ListRecentVerified).Methods("GET")
}
