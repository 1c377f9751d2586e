package members_test

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
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
	"github.com/vedicvivaha/backend/internal/service/members"
	"github.com/vedicvivaha/backend/internal/token"
)

const testSecret = "test-session-secret"

// setupService spins up an in-memory SQLite DB, a miniredis, and wires the
// browse/unlock service into an API router. Each test gets its own stack.
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
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // discard logs in tests

	appCtx := app.New(cfg, database, redisCache, logger)
	router := server.NewRouter(members.NewRegistrar(appCtx))
	return router, database
}

func seedMember(t *testing.T, gdb *gorm.DB, memberID, gender string, credits int) {
	t.Helper()
	require.NoError(t, gdb.Create(&db.Member{
		MemberID:     memberID,
		Name:         "Member " + memberID,
		PasswordHash: "x",
		Gender:       gender,
		DOB:          "1992-05-10",
		Active:       true,
		Credits:      credits,
	}).Error)
}

func doRequest(t *testing.T, h http.Handler, method, path, memberID string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(method, path, nil)
	if memberID != "" {
		r.Header.Set("Authorization", "Bearer "+token.Issue(memberID, testSecret))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestListRecentRequiresAuth(t *testing.T) {
	router, _ := setupService(t)

	w := doRequest(t, router, "GET", "/api/member-profiles/recent", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListRecentReciprocalFilter(t *testing.T) {
	router, gdb := setupService(t)

	seedMember(t, gdb, "VV-000001", "Male", 3)
	seedMember(t, gdb, "VV-000002", "Female", 3)
	seedMember(t, gdb, "VV-000003", "Male", 3)

	w := doRequest(t, router, "GET", "/api/member-profiles/recent", "VV-000001")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Items []struct {
			ProfileID string `json:"profile_id"`
			Gender    string `json:"gender"`
			Unlocked  bool   `json:"unlocked"`
		} `json:"items"`
		CreditsRemaining int   `json:"credits_remaining"`
		Total            int64 `json:"total"`
		TotalPages       int   `json:"total_pages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	require.Len(t, resp.Items, 1)
	assert.Equal(t, "VV-000002", resp.Items[0].ProfileID)
	assert.False(t, resp.Items[0].Unlocked)
	assert.Equal(t, 3, resp.CreditsRemaining)
	assert.Equal(t, int64(1), resp.Total)
	assert.Equal(t, 1, resp.TotalPages)
}

func TestListRecentPagination(t *testing.T) {
	router, gdb := setupService(t)

	seedMember(t, gdb, "VV-000100", "Male", 3)
	for i := 1; i <= 25; i++ {
		seedMember(t, gdb, fmt.Sprintf("VV-%06d", i), "Female", 3)
	}

	w := doRequest(t, router, "GET", "/api/member-profiles/recent?page=3&pageSize=10", "VV-000100")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Items      []json.RawMessage `json:"items"`
		Total      int64             `json:"total"`
		TotalPages int               `json:"total_pages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Items, 5)
	assert.Equal(t, int64(25), resp.Total)
	assert.Equal(t, 3, resp.TotalPages)

	// second call hits the cached total
	w = doRequest(t, router, "GET", "/api/member-profiles/recent?page=1&pageSize=10", "VV-000100")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(25), resp.Total)
}

func TestGetDetailHidesFilteredProfiles(t *testing.T) {
	router, gdb := setupService(t)

	seedMember(t, gdb, "VV-000001", "Male", 3)
	seedMember(t, gdb, "VV-000002", "Male", 3) // same gender: invisible

	// wrong gender and nonexistent look identical
	w := doRequest(t, router, "GET", "/api/member-profiles/VV-000002", "VV-000001")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, router, "GET", "/api/member-profiles/VV-999999", "VV-000001")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetDetailLockedOmitsFullDetails(t *testing.T) {
	router, gdb := setupService(t)

	seedMember(t, gdb, "VV-000001", "Male", 3)
	seedMember(t, gdb, "VV-000002", "Female", 3)

	w := doRequest(t, router, "GET", "/api/member-profiles/VV-000002", "VV-000001")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Profile struct {
			Unlocked bool `json:"unlocked"`
		} `json:"profile"`
		FullDetails *json.RawMessage `json:"full_details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Profile.Unlocked)
	assert.Nil(t, resp.FullDetails)
}

func TestUnlockFlow(t *testing.T) {
	router, gdb := setupService(t)

	seedMember(t, gdb, "VV-000001", "Male", 2)
	seedMember(t, gdb, "VV-000002", "Female", 3)

	type unlockResp struct {
		Message          string           `json:"message"`
		FullDetails      *json.RawMessage `json:"full_details"`
		CreditsRemaining int              `json:"credits_remaining"`
	}

	// first unlock spends one credit
	w := doRequest(t, router, "POST", "/api/member-profiles/VV-000002/unlock", "VV-000001")
	require.Equal(t, http.StatusOK, w.Code)
	var resp unlockResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Full profile unlocked successfully", resp.Message)
	assert.Equal(t, 1, resp.CreditsRemaining)
	assert.NotNil(t, resp.FullDetails)

	// second unlock is free
	w = doRequest(t, router, "POST", "/api/member-profiles/VV-000002/unlock", "VV-000001")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Full profile already unlocked", resp.Message)
	assert.Equal(t, 1, resp.CreditsRemaining)

	// listing now annotates the card as unlocked
	w = doRequest(t, router, "GET", "/api/member-profiles/recent", "VV-000001")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Items []struct {
			ProfileID string `json:"profile_id"`
			Unlocked  bool   `json:"unlocked"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Items, 1)
	assert.True(t, list.Items[0].Unlocked)
}

func TestUnlockInsufficientCredits(t *testing.T) {
	router, gdb := setupService(t)

	seedMember(t, gdb, "VV-000001", "Male", 0)
	seedMember(t, gdb, "VV-000002", "Female", 3)

	w := doRequest(t, router, "POST", "/api/member-profiles/VV-000002/unlock", "VV-000001")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "No credits available")

	var member db.Member
	require.NoError(t, gdb.Where("member_id = ?", "VV-000001").First(&member).Error)
	assert.Equal(t, 0, member.Credits)
}

func TestInactiveMemberRejected(t *testing.T) {
	router, gdb := setupService(t)

	seedMember(t, gdb, "VV-000001", "Male", 3)
	require.NoError(t, gdb.Model(&db.Member{}).Where("member_id = ?", "VV-000001").Update("active", false).Error)

	w := doRequest(t, router, "GET", "/api/member-profiles/recent", "VV-000001")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Contact support")
}
