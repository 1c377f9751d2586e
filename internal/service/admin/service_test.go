package admin_test

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vedicvivaha/backend/internal/app"
	"github.com/vedicvivaha/backend/internal/cache"
	"github.com/vedicvivaha/backend/internal/config"
	"github.com/vedicvivaha/backend/internal/db"
	"github.com/vedicvivaha/backend/internal/server"
	"github.com/vedicvivaha/backend/internal/service/admin"
)

const (
	testAdminUser     = "admin"
	testAdminPassword = "console-pass"
	testAdminToken    = "test-admin-token"
)

func setupService(t *testing.T) (http.Handler, *gorm.DB, *miniredis.Miniredis) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc:        func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := database.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(database))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := &config.Config{}
	cfg.Session.Secret = "test-session-secret"
	cfg.Redis.Addr = mr.Addr()
	cfg.Admin.Username = testAdminUser
	cfg.Admin.Password = testAdminPassword
	cfg.Admin.Token = testAdminToken

	redisCache := cache.NewRedisCache(cfg)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	appCtx := app.New(cfg, database, redisCache, logger)
	router := server.NewRouter(admin.NewRegistrar(appCtx))
	return router, database, mr
}

func seedMember(t *testing.T, gdb *gorm.DB, memberID, name, gender string, credits int) {
	t.Helper()
	require.NoError(t, gdb.Create(&db.Member{
		MemberID:     memberID,
		Name:         name,
		PasswordHash: "x",
		Gender:       gender,
		DOB:          "1990-01-01",
		Status:       "New",
		Active:       true,
		Credits:      credits,
	}).Error)
}

func doAdmin(t *testing.T, h http.Handler, method, path, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, path, reader)
	if authed {
		r.Header.Set("Authorization", "Bearer "+testAdminToken)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestLogin(t *testing.T) {
	router, _, _ := setupService(t)

	w := doAdmin(t, router, "POST", "/api/admin/login",
		`{"username": "admin", "password": "console-pass"}`, false)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, testAdminToken, resp.Token)

	w = doAdmin(t, router, "POST", "/api/admin/login",
		`{"username": "admin", "password": "wrong"}`, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid admin credentials")
}

func TestListRegistrationsRequiresToken(t *testing.T) {
	router, _, _ := setupService(t)

	w := doAdmin(t, router, "GET", "/api/admin/registrations", "", false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListRegistrationsFiltersAndSorts(t *testing.T) {
	router, gdb, _ := setupService(t)

	seedMember(t, gdb, "VV-000001", "Anita Sharma", "Female", 3)
	seedMember(t, gdb, "VV-000002", "Bhaskar Rao", "Male", 0)
	seedMember(t, gdb, "VV-000003", "Chitra Devi", "Female", 1)

	type listResp struct {
		Items []struct {
			MemberID string `json:"member_id"`
			Name     string `json:"name"`
			Credits  int    `json:"credits"`
		} `json:"items"`
		Total int64 `json:"total"`
	}

	w := doAdmin(t, router, "GET", "/api/admin/registrations?search=rao", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	var resp listResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "VV-000002", resp.Items[0].MemberID)

	w = doAdmin(t, router, "GET", "/api/admin/registrations?maxCredits=1&sortBy=credits&sortOrder=asc", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 2)
	assert.Equal(t, int64(2), resp.Total)
	assert.Equal(t, 0, resp.Items[0].Credits)
	assert.Equal(t, 1, resp.Items[1].Credits)
}

func TestUpdateRegistrationInvalidatesBrowseCount(t *testing.T) {
	router, gdb, mr := setupService(t)

	seedMember(t, gdb, "VV-000001", "Anita Sharma", "Female", 3)
	require.NoError(t, mr.Set("candidates:count:VV-000001", "42"))

	w := doAdmin(t, router, "PATCH", "/api/admin/registrations/VV-000001",
		`{"isActive": false, "city": "Chennai", "nakshatra": "Rohini"}`, true)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		IsActive  bool       `json:"is_active"`
		City      string     `json:"city"`
		ExtraData db.JSONMap `json:"extra_data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.IsActive)
	assert.Equal(t, "Chennai", resp.City)
	assert.Equal(t, "Rohini", resp.ExtraData.String("nakshatra"))

	// deactivation drops the member's cached browse total
	assert.False(t, mr.Exists("candidates:count:VV-000001"))
}

func TestUpdateRegistrationUnknownMember(t *testing.T) {
	router, _, _ := setupService(t)

	w := doAdmin(t, router, "PATCH", "/api/admin/registrations/VV-999999", `{"city": "Chennai"}`, true)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Member not found")
}

func TestResetPassword(t *testing.T) {
	router, gdb, _ := setupService(t)

	seedMember(t, gdb, "VV-000001", "Anita Sharma", "Female", 3)

	w := doAdmin(t, router, "POST", "/api/admin/registrations/VV-000001/reset-password",
		`{"newPassword": "abc"}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Password must be at least 4 characters")

	w = doAdmin(t, router, "POST", "/api/admin/registrations/VV-000001/reset-password",
		`{"newPassword": "fresh-pass"}`, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Password reset successful")

	var member db.Member
	require.NoError(t, gdb.Where("member_id = ?", "VV-000001").First(&member).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(member.PasswordHash), []byte("fresh-pass")))
}
