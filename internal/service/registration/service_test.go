package registration_test

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
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vedicvivaha/backend/internal/app"
	"github.com/vedicvivaha/backend/internal/cache"
	"github.com/vedicvivaha/backend/internal/config"
	"github.com/vedicvivaha/backend/internal/db"
	"github.com/vedicvivaha/backend/internal/server"
	"github.com/vedicvivaha/backend/internal/service/registration"
	"github.com/vedicvivaha/backend/internal/token"
)

const testSecret = "test-session-secret"

func setupService(t *testing.T) (http.Handler, *gorm.DB) {
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
	cfg.Session.Secret = testSecret
	cfg.Redis.Addr = mr.Addr()

	redisCache := cache.NewRedisCache(cfg)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	appCtx := app.New(cfg, database, redisCache, logger)
	router := server.NewRouter(registration.NewRegistrar(appCtx))
	return router, database
}

func postJSON(t *testing.T, h http.Handler, path, memberID, body string) *httptest.ResponseRecorder {
	t.Helper()
	return sendJSON(t, h, "POST", path, memberID, body)
}

func sendJSON(t *testing.T, h http.Handler, method, path, memberID, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	if memberID != "" {
		r.Header.Set("Authorization", "Bearer "+token.Issue(memberID, testSecret))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestCreateAssignsMemberIDAndCredits(t *testing.T) {
	router, gdb := setupService(t)

	w := postJSON(t, router, "/api/registrations", "", `{
		"name": "Lakshmi",
		"password": "secret123",
		"gender": "Female",
		"dob": "1995-08-20",
		"nakshatra": "Rohini",
		"padham": "2"
	}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Regexp(t, `^VV-\d{6}$`, resp.ID)

	var member db.Member
	require.NoError(t, gdb.Where("member_id = ?", resp.ID).First(&member).Error)
	assert.Equal(t, 3, member.Credits)
	assert.Equal(t, "New", member.Status)
	assert.True(t, member.Active)
	// unknown keys land in extra_data, not dropped
	assert.Equal(t, "Rohini", member.ExtraData.String("nakshatra"))
	// password stored only as a hash
	assert.NotContains(t, member.PasswordHash, "secret123")
}

func TestCreateValidation(t *testing.T) {
	router, _ := setupService(t)

	cases := []struct {
		name string
		body string
		want string
	}{
		{"missing name", `{"password": "secret123"}`, "Name is required"},
		{"short password", `{"name": "A", "password": "abc"}`, "Password must be at least 4 characters"},
		{"bad json", `{`, "Invalid request body"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := postJSON(t, router, "/api/registrations", "", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tc.want)
		})
	}
}

func TestLoginIssuesUsableToken(t *testing.T) {
	router, _ := setupService(t)

	w := postJSON(t, router, "/api/registrations", "", `{"name": "Ravi", "password": "secret123"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = postJSON(t, router, "/api/member-login", "", fmt.Sprintf(
		`{"memberId": %q, "password": "secret123"}`, created.ID))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token  string `json:"token"`
		Member struct {
			ID      string `json:"id"`
			Name    string `json:"name"`
			Credits int    `json:"credits"`
		} `json:"member"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, created.ID, resp.Member.ID)
	assert.Equal(t, "Ravi", resp.Member.Name)
	assert.Equal(t, 3, resp.Member.Credits)

	memberID, ok := token.Verify(resp.Token, testSecret)
	require.True(t, ok)
	assert.Equal(t, created.ID, memberID)
}

func TestLoginRejectionsLookIdentical(t *testing.T) {
	router, _ := setupService(t)

	w := postJSON(t, router, "/api/registrations", "", `{"name": "Ravi", "password": "secret123"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	wrongPassword := postJSON(t, router, "/api/member-login", "", fmt.Sprintf(
		`{"memberId": %q, "password": "nope"}`, created.ID))
	unknownMember := postJSON(t, router, "/api/member-login", "",
		`{"memberId": "VV-999999", "password": "secret123"}`)

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownMember.Code)
	assert.JSONEq(t, wrongPassword.Body.String(), unknownMember.Body.String())
}

func TestUpdateOwnProfile(t *testing.T) {
	router, gdb := setupService(t)

	w := postJSON(t, router, "/api/registrations", "", `{"name": "Ravi", "password": "secret123", "occupation": "Engineer"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = sendJSON(t, router, "PATCH", "/api/member/profile", created.ID,
		`{"address": "12 Temple St", "message": "Namaste"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var member db.Member
	require.NoError(t, gdb.Where("member_id = ?", created.ID).First(&member).Error)
	assert.Equal(t, "12 Temple St", member.Address)
	assert.Equal(t, "Namaste", member.Message)
	// fields omitted from the patch are untouched
	assert.Equal(t, "Engineer", member.Occupation)
}
