package admin

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/vedicvivaha/backend/internal/app"
	"github.com/vedicvivaha/backend/internal/auth"
	"github.com/vedicvivaha/backend/internal/db"
	apperrors "github.com/vedicvivaha/backend/internal/errors"
	"github.com/vedicvivaha/backend/internal/httpx"
	"github.com/vedicvivaha/backend/internal/repository"
	"github.com/vedicvivaha/backend/internal/utils/pagination"
)

const (
	defaultPageSize   = 10
	maxPageSize       = 100
	minPasswordLength = 4
)

// Service implements the admin console: login against static credentials and
// registration management (list, edit, password reset).
type Service struct {
	appCtx     *app.AppContext
	auth       *auth.Authenticator
	memberRepo *repository.MemberRepository
}

// NewService creates the admin service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:     appCtx,
		auth:       auth.New(appCtx.DB, appCtx.Config),
		memberRepo: repository.NewMemberRepository(appCtx.DB),
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login serves POST /admin/login: constant-time credential compare, then the
// static admin bearer token is handed out.
func (s *Service) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	adminCfg := s.appCtx.Config.Admin
	validUser := subtle.ConstantTimeCompare([]byte(req.Username), []byte(adminCfg.Username))
	validPass := subtle.ConstantTimeCompare([]byte(req.Password), []byte(adminCfg.Password))
	if validUser&validPass != 1 {
		httpx.WriteDetail(w, http.StatusUnauthorized, "Invalid admin credentials")
		return
	}

	s.appCtx.Logger.Info("admin login")
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"token": adminCfg.Token})
}

type registrationItem struct {
	ID         string     `json:"id"`
	MemberID   string     `json:"member_id"`
	Name       string     `json:"name"`
	Email      string     `json:"email,omitempty"`
	Phone      string     `json:"phone,omitempty"`
	City       string     `json:"city,omitempty"`
	Address    string     `json:"address,omitempty"`
	Gender     string     `json:"gender,omitempty"`
	DOB        string     `json:"dob,omitempty"`
	Education  string     `json:"education,omitempty"`
	Occupation string     `json:"occupation,omitempty"`
	Gothram    string     `json:"gothram,omitempty"`
	Message    string     `json:"message,omitempty"`
	Status     string     `json:"status"`
	IsActive   bool       `json:"is_active"`
	Credits    int        `json:"credits"`
	ExtraData  db.JSONMap `json:"extra_data"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func toItem(m *db.Member) registrationItem {
	extra := m.ExtraData
	if extra == nil {
		extra = db.JSONMap{}
	}
	return registrationItem{
		ID:         m.MemberID,
		MemberID:   m.MemberID,
		Name:       m.Name,
		Email:      m.Email,
		Phone:      m.Phone,
		City:       m.City,
		Address:    m.Address,
		Gender:     m.Gender,
		DOB:        m.DOB,
		Education:  m.Education,
		Occupation: m.Occupation,
		Gothram:    m.Gothram,
		Message:    m.Message,
		Status:     m.Status,
		IsActive:   m.Active,
		Credits:    m.Credits,
		ExtraData:  extra,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

type listResponse struct {
	Items      []registrationItem `json:"items"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalPages int                `json:"total_pages"`
}

// ListRegistrations serves GET /admin/registrations with console filters.
func (s *Service) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.RequireAdmin(r); err != nil {
		httpx.WriteError(w, err)
		return
	}

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))
	p := pagination.Normalize(page, pageSize, defaultPageSize, maxPageSize)

	filter := repository.AdminFilter{
		Search:    q.Get("search"),
		MemberID:  q.Get("memberId"),
		Name:      q.Get("name"),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}
	if v := q.Get("isActive"); v != "" {
		active := v == "true" || v == "1"
		filter.Active = &active
	}
	if v := q.Get("maxCredits"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			filter.MaxCredits = &n
		}
	}

	rows, total, err := s.memberRepo.ListRegistrations(r.Context(), filter, p)
	if err != nil {
		s.appCtx.Logger.Error("ListRegistrations failed", "err", err)
		httpx.WriteError(w, err)
		return
	}

	items := make([]registrationItem, 0, len(rows))
	for i := range rows {
		items = append(items, toItem(&rows[i]))
	}

	httpx.WriteJSON(w, http.StatusOK, listResponse{
		Items:      items,
		Total:      total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: pagination.TotalPages(total, p.PageSize),
	})
}

// UpdateRegistration serves PATCH /admin/registrations/{memberId}. Console
// aliases (isActive, extraData) map onto columns; unknown keys merge into
// ExtraData.
func (s *Service) UpdateRegistration(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.RequireAdmin(r); err != nil {
		httpx.WriteError(w, err)
		return
	}

	memberID := mux.Vars(r)["memberId"]
	member, err := s.memberRepo.GetByMemberID(r.Context(), memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.WriteError(w, apperrors.WithDetail(apperrors.ErrNotFound, "Member not found"))
			return
		}
		httpx.WriteError(w, err)
		return
	}

	var payload map[string]any
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updates := make(map[string]any, len(payload))
	poolChanged := false
	for key, value := range payload {
		switch key {
		case "isActive":
			updates["active"] = value
			poolChanged = true
		case "extraData":
			updates["extra_data"] = value
		case "gender":
			updates["gender"] = value
			poolChanged = true
		default:
			updates[key] = value
		}
	}

	if err := s.memberRepo.UpdateFields(r.Context(), member, updates); err != nil {
		s.appCtx.Logger.Error("UpdateFields failed", "member", memberID, "err", err)
		httpx.WriteError(w, err)
		return
	}

	// gender/active edits change which pool this member browses
	if poolChanged {
		_ = s.appCtx.RedisCache.InvalidateCandidateCount(r.Context(), member.MemberID)
	}

	s.appCtx.Logger.Info("registration updated", "member", memberID)
	httpx.WriteJSON(w, http.StatusOK, toItem(member))
}

type resetPasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

// ResetPassword serves POST /admin/registrations/{memberId}/reset-password.
func (s *Service) ResetPassword(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.RequireAdmin(r); err != nil {
		httpx.WriteError(w, err)
		return
	}

	var req resetPasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		httpx.WriteDetail(w, http.StatusBadRequest, "Password must be at least 4 characters")
		return
	}

	memberID := mux.Vars(r)["memberId"]
	member, err := s.memberRepo.GetByMemberID(r.Context(), memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.WriteError(w, apperrors.WithDetail(apperrors.ErrNotFound, "Member not found"))
			return
		}
		httpx.WriteError(w, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if err := s.memberRepo.UpdatePasswordHash(r.Context(), member, string(hash)); err != nil {
		httpx.WriteError(w, err)
		return
	}

	s.appCtx.Logger.Info("password reset", "member", memberID)
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Password reset successful"})
}

// Registrar ties the admin console endpoints into the API router
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the admin service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the admin console routes to the router
func (reg *Registrar) Register(r *mux.Router) {
	service := NewService(reg.appCtx)
	r.HandleFunc("/admin/login", service.Login).Methods("POST")
	r.HandleFunc("/admin/registrations", service.ListRegistrations).Methods("GET")
	r.HandleFunc("/admin/registrations/{memberId}", service.UpdateRegistration).Methods("PATCH")
	r.HandleFunc("/admin/registrations/{memberId}/reset-password", service.ResetPassword).Methods("POST")
}
