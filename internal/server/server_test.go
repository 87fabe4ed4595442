package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthdaily/internal/calorie"
	"healthdaily/internal/notify"
	"healthdaily/internal/profile"
	"healthdaily/internal/record"
	"healthdaily/internal/tracker"
)

type stubAnalyzer struct{}

func (stubAnalyzer) AnalyzeFood(ctx context.Context, foodInput string) calorie.FoodAnalysis {
	return calorie.FoodAnalysis{
		FoodItems:    []calorie.FoodItem{{Name: "米饭", EstimatedWeightG: 200}},
		ClarityScore: 4,
	}
}

type stubPlanner struct{}

func (stubPlanner) GeneratePlan(ctx context.Context, rec *record.DailyRecord, history string) record.DailyPlan {
	return record.DailyPlan{FoodItems: []string{"三餐规律"}, MovementItems: []string{"散步30分钟"}}
}

func testServer(t *testing.T) *Server {
	t.Helper()
	store, err := record.NewFileStore(t.TempDir())
	require.NoError(t, err)
	hub := notify.NewHub()
	svc := tracker.New(store, stubAnalyzer{}, stubPlanner{}, hub)
	return &Server{
		tracker:   tracker.NewHandler(svc),
		profiles:  profile.NewMemoryRepository(),
		hub:       hub,
		secret:    "test-secret",
		startTime: time.Now(),
	}
}

func doJSON(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func signup(t *testing.T, h http.Handler) string {
	t.Helper()
	rr := doJSON(t, h, http.MethodPost, "/signup", "", `{"username":"alice","password":"secret123"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func TestHealthEndpoint(t *testing.T) {
	h := testServer(t).RegisterRoutes()
	rr := doJSON(t, h, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"online"`)
	assert.Contains(t, rr.Body.String(), `"backend":"file"`)
}

func TestSignupLoginFlow(t *testing.T) {
	h := testServer(t).RegisterRoutes()
	signup(t, h)

	rr := doJSON(t, h, http.MethodPost, "/login", "", `{"username":"alice","password":"secret123"}`)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, h, http.MethodPost, "/login", "", `{"username":"alice","password":"wrong-pass"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doJSON(t, h, http.MethodPost, "/signup", "", `{"username":"alice","password":"secret123"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := testServer(t).RegisterRoutes()
	rr := doJSON(t, h, http.MethodGet, "/record", "", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestMealRoundTrip(t *testing.T) {
	h := testServer(t).RegisterRoutes()
	token := signup(t, h)

	rr := doJSON(t, h, http.MethodPost, "/meals", token, `{"slot":"lunch","text":"吃了牛肉面"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"status_label":"eaten"`)

	rr = doJSON(t, h, http.MethodGet, "/record", token, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "吃了牛肉面")
}

func TestProfileUpdateReturnsBMI(t *testing.T) {
	h := testServer(t).RegisterRoutes()
	token := signup(t, h)

	rr := doJSON(t, h, http.MethodPut, "/profile", token, `{"height_cm":170,"weight_kg":65}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"bmi":22.5`)
}
