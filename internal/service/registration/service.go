package registration

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/vedicvivaha/backend/internal/app"
	"github.com/vedicvivaha/backend/internal/auth"
	"github.com/vedicvivaha/backend/internal/db"
	"github.com/vedicvivaha/backend/internal/httpx"
	"github.com/vedicvivaha/backend/internal/repository"
	"github.com/vedicvivaha/backend/internal/token"
)

// startingCredits is the fixed grant every new registration receives.
const startingCredits = 3

const minPasswordLength = 4

// knownFields are the registration payload keys that map to member columns;
// everything else folds into ExtraData.
var knownFields = map[string]bool{
	"name": true, "email": true, "password": true, "phone": true,
	"gender": true, "dob": true, "city": true, "address": true,
	"education": true, "occupation": true, "gothram": true, "message": true,
}

// Service implements registration intake, member login and the member's
// self-service profile edit.
type Service struct {
	appCtx     *app.AppContext
	auth       *auth.Authenticator
	memberRepo *repository.MemberRepository
}

// NewService creates the registration service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:     appCtx,
		auth:       auth.New(appCtx.DB, appCtx.Config),
		memberRepo: repository.NewMemberRepository(appCtx.DB),
	}
}

func stringField(payload map[string]any, key string) string {
	if v, ok := payload[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// Create serves POST /registrations: the public intake form. Known fields map
// to columns, arbitrary extra keys are preserved in ExtraData, and the member
// id is assigned from the row id as VV-%06d.
func (s *Service) Create(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	name := stringField(payload, "name")
	password := stringField(payload, "password")
	if name == "" {
		httpx.WriteDetail(w, http.StatusBadRequest, "Name is required")
		return
	}
	if len(password) < minPasswordLength {
		httpx.WriteDetail(w, http.StatusBadRequest, "Password must be at least 4 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.appCtx.Logger.Error("password hashing failed", "err", err)
		httpx.WriteError(w, err)
		return
	}

	extra := db.JSONMap{}
	for key, value := range payload {
		if !knownFields[key] {
			extra[key] = value
		}
	}

	member := &db.Member{
		Name:         name,
		Email:        stringField(payload, "email"),
		Phone:        stringField(payload, "phone"),
		PasswordHash: string(hash),
		Gender:       stringField(payload, "gender"),
		DOB:          stringField(payload, "dob"),
		City:         stringField(payload, "city"),
		Address:      stringField(payload, "address"),
		Education:    stringField(payload, "education"),
		Occupation:   stringField(payload, "occupation"),
		Gothram:      stringField(payload, "gothram"),
		Message:      stringField(payload, "message"),
		Status:       "New",
		Active:       true,
		Credits:      startingCredits,
		ExtraData:    extra,
	}
	if err := s.memberRepo.CreateRegistration(r.Context(), member); err != nil {
		s.appCtx.Logger.Error("registration failed", "err", err)
		httpx.WriteError(w, err)
		return
	}

	s.appCtx.Logger.Info("registration created", "member", member.MemberID)
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"id": member.MemberID})
}

type loginRequest struct {
	MemberID string `json:"memberId"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token  string         `json:"token"`
	Member memberIdentity `json:"member"`
}

type memberIdentity struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Credits int    `json:"credits"`
}

// Login serves POST /member-login. Unknown member and wrong password share
// one rejection message; a session token is issued on success.
func (s *Service) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	member, err := s.memberRepo.GetByMemberID(r.Context(), strings.TrimSpace(req.MemberID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.WriteDetail(w, http.StatusUnauthorized, "Invalid member ID or password")
			return
		}
		httpx.WriteError(w, err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(member.PasswordHash), []byte(req.Password)) != nil {
		httpx.WriteDetail(w, http.StatusUnauthorized, "Invalid member ID or password")
		return
	}

	s.appCtx.Logger.Info("member login", "member", member.MemberID)

	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		Token: token.Issue(member.MemberID, s.appCtx.Config.Session.Secret),
		Member: memberIdentity{
			ID:      member.MemberID,
			Name:    member.Name,
			Credits: member.Credits,
		},
	})
}

type selfUpdateRequest struct {
	Address    *string `json:"address"`
	Occupation *string `json:"occupation"`
	Message    *string `json:"message"`
}

// UpdateOwnProfile serves PATCH /member/profile: members may edit their own
// address, occupation and message, nothing else.
func (s *Service) UpdateOwnProfile(w http.ResponseWriter, r *http.Request) {
	member, err := s.auth.RequireMember(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	var req selfUpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.memberRepo.UpdateMemberFields(r.Context(), member, req.Address, req.Occupation, req.Message); err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Profile updated"})
}

// Registrar ties the registration endpoints into the API router
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the registration service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the registration routes to the router
func (reg *Registrar) Register(r *mux.Router) {
	service := NewService(reg.appCtx)
	r.HandleFunc("/registrations", service.Create).Methods("POST")
	r.HandleFunc("/member-login", service.Login).Methods("POST")
	r.HandleFunc("/member/profile", service.UpdateOwnProfile).Methods("PATCH")
}
