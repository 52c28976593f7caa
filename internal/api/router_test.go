package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/isdelr/punchy-be/internal/database"
	"github.com/isdelr/punchy-be/internal/services"
	"github.com/isdelr/punchy-be/internal/testutil"
	"github.com/isdelr/punchy-be/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const aliceToken = "tok-alice"

type testEnv struct {
	db     *database.DB
	router http.Handler
	visits *services.VisitService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	testutil.SeedUser(t, db, "alice", "alice@example.com", "en", aliceToken)

	hub := websocket.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	users := services.NewUserService(db)
	languages := services.NewLanguageService(db, users)
	punches := services.NewPunchService(db, hub)
	visits := services.NewVisitService(db)

	router := NewRouter(hub, db, users, languages, punches, visits, []string{"http://localhost:5173"})
	return &testEnv{db: db, router: router, visits: visits}
}

func (env *testEnv) do(t *testing.T, method, path, body string, headers ...string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	var out map[string]interface{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func punchBody(when string) string {
	return `{"token":"` + aliceToken + `","when":"` + when + `"}`
}

func TestAliceScenario(t *testing.T) {
	env := setupTestEnv(t)

	rec, body := env.do(t, http.MethodPost, "/api/v1/time-records/punch-in", punchBody("2024-01-01T09:00:00Z"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "ok", body["status"])
	record := body["record"].(map[string]interface{})
	assert.Equal(t, "2024-01-01T09:00:00Z", record["clock_in"])
	assert.Nil(t, record["clock_out"])
	assert.Nil(t, record["duration_ms"])
	openID := record["id"]

	rec, body = env.do(t, http.MethodPost, "/api/v1/time-records/punch-in", punchBody("2024-01-01T10:00:00Z"))
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "open_exists", body["status"])
	assert.Equal(t, "You must punch out before starting a new record.", body["message"])
	open := body["open_record"].(map[string]interface{})
	assert.Equal(t, openID, open["id"])
	assert.Equal(t, "2024-01-01T09:00:00Z", open["clock_in"])

	rec, body = env.do(t, http.MethodPost, "/api/v1/time-records/punch-out", punchBody("2024-01-01T17:00:00Z"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	record = body["record"].(map[string]interface{})
	assert.Equal(t, openID, record["id"])
	assert.Equal(t, "2024-01-01T17:00:00Z", record["clock_out"])
	assert.Equal(t, float64(28800000), record["duration_ms"])

	rec, body = env.do(t, http.MethodPost, "/api/v1/time-records/punch-out", punchBody("2024-01-01T18:00:00Z"))
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "no_open_record", body["status"])

	rec, body = env.do(t, http.MethodPost, "/api/v1/time-records/list", `{"token":"`+aliceToken+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Nil(t, body["open_record"])
	records := body["records"].([]interface{})
	require.Len(t, records, 1)
	assert.Equal(t, float64(28800000), records[0].(map[string]interface{})["duration_ms"])
}

func TestPunchOut_InvalidRange(t *testing.T) {
	env := setupTestEnv(t)

	rec, _ := env.do(t, http.MethodPost, "/api/v1/time-records/punch-in", punchBody("2024-01-01T09:00:00Z"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body := env.do(t, http.MethodPost, "/api/v1/time-records/punch-out", punchBody("2024-01-01T08:59:59Z"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_range", body["status"])
	assert.Equal(t, "End time cannot be before start time.", body["message"])
	assert.Equal(t, 1, testutil.CountOpen(t, env.db, "alice"))
}

func TestPunch_BadInput(t *testing.T) {
	env := setupTestEnv(t)

	tests := []struct {
		name    string
		body    string
		code    int
		status  string
		message string
	}{
		{name: "malformed json", body: `{"token":`, code: http.StatusBadRequest, status: "fail", message: "Invalid request body"},
		{name: "bad timestamp", body: punchBody("yesterday"), code: http.StatusBadRequest, status: "fail", message: "Invalid timestamp"},
		{name: "missing timestamp", body: `{"token":"` + aliceToken + `"}`, code: http.StatusBadRequest, status: "fail", message: "Invalid timestamp"},
		{name: "unknown timezone", body: `{"token":"` + aliceToken + `","when":"2024-01-01T09:00:00Z","timezone":"Mars/Base"}`, code: http.StatusBadRequest, status: "fail", message: "Invalid timezone"},
		{name: "unknown token", body: `{"token":"nope","when":"2024-01-01T09:00:00Z"}`, code: http.StatusUnauthorized, status: "invalid_token", message: "Authentication failed."},
		{name: "no token", body: `{"when":"2024-01-01T09:00:00Z"}`, code: http.StatusUnauthorized, status: "invalid_token", message: "Authentication failed."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := env.do(t, http.MethodPost, "/api/v1/time-records/punch-in", tt.body)
			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.status, body["status"])
			assert.Equal(t, tt.message, body["message"])
		})
	}
	assert.Equal(t, 0, testutil.CountOpen(t, env.db, "alice"))
}

func TestPunch_TimezoneRendering(t *testing.T) {
	env := setupTestEnv(t)

	rec, body := env.do(t, http.MethodPost, "/api/v1/time-records/punch-in",
		`{"token":"`+aliceToken+`","when":"2024-01-01T09:00:00","timezone":"America/Toronto"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	record := body["record"].(map[string]interface{})
	assert.Equal(t, "2024-01-01T09:00:00-05:00", record["clock_in"])

	rec, body = env.do(t, http.MethodPost, "/api/v1/time-records/list", `{"token":"`+aliceToken+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	open := body["open_record"].(map[string]interface{})
	assert.Equal(t, "2024-01-01T14:00:00Z", open["clock_in"])
}

func TestSession(t *testing.T) {
	env := setupTestEnv(t)

	rec, body := env.do(t, http.MethodPost, "/api/v1/auth/session", `{"token":"`+aliceToken+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "authenticated", body["status"])
	assert.Equal(t, aliceToken, body["received_token"])
	assert.Equal(t, map[string]interface{}{"username": "alice", "lang": "EN", "email": "alice@example.com"}, body["user"])

	rec, body = env.do(t, http.MethodPost, "/api/v1/auth/session", "", "Authorization", "Bearer "+aliceToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "authenticated", body["status"])

	rec, body = env.do(t, http.MethodPost, "/api/v1/auth/session", `{"token":"bogus"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_token", body["status"])
	assert.Equal(t, "Authentication failed.", body["message"])
	assert.Equal(t, "bogus", body["received_token"])
}

func TestChangeLang(t *testing.T) {
	env := setupTestEnv(t)

	rec, body := env.do(t, http.MethodPost, "/api/v1/account/lang", `{"token":"`+aliceToken+`","lang":" pt "}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "updated", body["status"])
	assert.Equal(t, "PT", body["user"].(map[string]interface{})["lang"])

	rec, body = env.do(t, http.MethodPost, "/api/v1/account/lang", `{"token":"`+aliceToken+`","lang":"de"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_lang", body["status"])
	assert.Equal(t, "Language must be one of EN, PT, or FR.", body["message"])
	assert.Equal(t, "DE", body["received_lang"])
	assert.Equal(t, aliceToken, body["received_token"])

	_, body = env.do(t, http.MethodPost, "/api/v1/auth/session", `{"token":"`+aliceToken+`"}`)
	assert.Equal(t, "PT", body["user"].(map[string]interface{})["lang"])

	rec, body = env.do(t, http.MethodPost, "/api/v1/account/lang", `{"token":"bogus","lang":"EN"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_token", body["status"])
}

func TestListAllRecords(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	for i, u := range []string{"bob", "alice", "bob"} {
		_, err := env.visits.RecordVisit(ctx, u, "liap", base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	rec, body := env.do(t, http.MethodGet, "/api/v1/records?limit=abc&offset=-5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, float64(2), body["count"])
	items := body["items"].([]interface{})
	first := items[0].(map[string]interface{})
	assert.Equal(t, "bob", first["username"])
	assert.Len(t, first["records"], 2)
	visit := first["records"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "liap", visit["site"])
	assert.Equal(t, "2024-03-01T08:02:00Z", visit["timestamp"])

	_, body = env.do(t, http.MethodGet, "/api/v1/records?username=alice", "")
	assert.Equal(t, float64(1), body["count"])

	_, body = env.do(t, http.MethodGet, "/api/v1/records?limit=1", "")
	assert.Equal(t, float64(1), body["count"])
}

func TestCORS(t *testing.T) {
	env := setupTestEnv(t)

	rec, _ := env.do(t, http.MethodOptions, "/api/v1/time-records/punch-in", "",
		"Origin", "http://localhost:5173",
		"Access-Control-Request-Method", "POST",
		"Access-Control-Request-Headers", "Content-Type")
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	rec, _ = env.do(t, http.MethodOptions, "/api/v1/time-records/punch-in", "",
		"Origin", "https://evil.example",
		"Access-Control-Request-Method", "POST")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthz(t *testing.T) {
	env := setupTestEnv(t)

	rec, body := env.do(t, http.MethodGet, "/api/v1/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	require.NoError(t, env.db.Close())
	rec, body = env.do(t, http.MethodGet, "/api/v1/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "fail", body["status"])
}

func TestWebSocket_RequiresToken(t *testing.T) {
	env := setupTestEnv(t)

	rec, body := env.do(t, http.MethodGet, "/api/v1/ws", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_token", body["status"])
}
