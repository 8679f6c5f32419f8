package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"strengthlab/fitness-app/internal/domain"
	"strengthlab/fitness-app/internal/generation"
	"strengthlab/fitness-app/internal/service"
)

func generatedDoc(userID primitive.ObjectID) *domain.ProgramDocument {
	workout := domain.WeeklyWorkout{
		Cycles: map[string]domain.WorkoutCycle{
			domain.DefaultCycleKey: {
				"day1": {Description: "Lower body", Workout: "Squat 5x5"},
				"day2": {Description: "Upper body", Workout: "Bench 5x5"},
				"day3": {Description: "Full body", Workout: "Deadlift 3x5"},
			},
		},
		Meta: &domain.WorkoutMeta{Title: "Strength Block", Summary: "Three day linear progression"},
	}
	return &domain.ProgramDocument{
		ID:      "prog-1",
		UserID:  userID.Hex(),
		Name:    "Strength Block",
		Program: workout,
	}
}

func postGenerate(t *testing.T, router *gin.Engine, token string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/workouts/generate", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGenerateEndpointReturnsBareProgram(t *testing.T) {
	userID := primitive.NewObjectID()
	var gotParams domain.GenerationParams

	svcs := defaultServices()
	svcs.programs.GenerateFunc = func(ctx context.Context, uid primitive.ObjectID, params domain.GenerationParams) (*domain.ProgramDocument, *domain.DebugInfo, error) {
		assert.Equal(t, userID, uid)
		gotParams = params
		return generatedDoc(uid), &domain.DebugInfo{Model: "test-model"}, nil
	}
	router := newTestRouter(svcs)

	body := `{"prompt":"push strength","fitnessLevel":"beginner","numberOfDays":3,"numberOfCycles":1}`
	w := postGenerate(t, router, mintToken(t, userID, domain.TierFree), body)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	assert.Equal(t, "push strength", gotParams.PromptText)
	assert.Equal(t, 3, gotParams.NumberOfDays)

	// The body is the program document itself. Management fields like the
	// record ID never appear; consumers decode the object as day entries and
	// would reject foreign keys.
	var entries map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	assert.Contains(t, entries, "day1")
	assert.Contains(t, entries, "day2")
	assert.Contains(t, entries, "day3")
	assert.Contains(t, entries, domain.MetaKey)
	assert.NotContains(t, entries, "id")
	assert.NotContains(t, entries, "name")
	assert.NotContains(t, entries, "userId")
	// Debug stays off unless explicitly enabled.
	assert.NotContains(t, entries, domain.DebugKey)

	var decoded domain.WeeklyWorkout
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	day, ok := decoded.Day(domain.DefaultCycleKey, "day1")
	require.True(t, ok)
	assert.Equal(t, "Squat 5x5", day.Workout)
	assert.Equal(t, "Strength Block", decoded.Title())
}

func TestGenerateEndpointDebugChannel(t *testing.T) {
	userID := primitive.NewObjectID()

	svcs := defaultServices()
	svcs.includeDebug = true
	svcs.programs.GenerateFunc = func(ctx context.Context, uid primitive.ObjectID, params domain.GenerationParams) (*domain.ProgramDocument, *domain.DebugInfo, error) {
		return generatedDoc(uid), &domain.DebugInfo{Model: "test-model", PromptTokens: 120, ElapsedMS: 950}, nil
	}
	router := newTestRouter(svcs)

	body := `{"prompt":"legs","numberOfDays":3,"numberOfCycles":1}`
	w := postGenerate(t, router, mintToken(t, userID, domain.TierPro), body)

	require.Equal(t, http.StatusOK, w.Code)
	var entries map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Contains(t, entries, domain.DebugKey)

	var debug domain.DebugInfo
	require.NoError(t, json.Unmarshal(entries[domain.DebugKey], &debug))
	assert.Equal(t, "test-model", debug.Model)
	assert.Equal(t, 120, debug.PromptTokens)

	// Day entries survive next to the injected debug entry.
	assert.Contains(t, entries, "day1")
	assert.Contains(t, entries, domain.MetaKey)
}

func TestGenerateEndpointLimitExceeded(t *testing.T) {
	userID := primitive.NewObjectID()

	svcs := defaultServices()
	svcs.programs.GenerateFunc = func(ctx context.Context, uid primitive.ObjectID, params domain.GenerationParams) (*domain.ProgramDocument, *domain.DebugInfo, error) {
		return nil, nil, service.ErrWorkoutLimitExceeded
	}
	router := newTestRouter(svcs)

	body := `{"prompt":"more","numberOfDays":3,"numberOfCycles":1}`
	w := postGenerate(t, router, mintToken(t, userID, domain.TierFree), body)

	require.Equal(t, http.StatusForbidden, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, generation.LimitExceededReason, resp["error"])
}

func TestGenerateEndpointEmptyResult(t *testing.T) {
	userID := primitive.NewObjectID()

	svcs := defaultServices()
	svcs.programs.GenerateFunc = func(ctx context.Context, uid primitive.ObjectID, params domain.GenerationParams) (*domain.ProgramDocument, *domain.DebugInfo, error) {
		return nil, nil, service.ErrEmptyGeneration
	}
	router := newTestRouter(svcs)

	body := `{"prompt":"anything","numberOfDays":3,"numberOfCycles":1}`
	w := postGenerate(t, router, mintToken(t, userID, domain.TierFree), body)

	// "Worked but produced nothing" is a 200 with a null body, not an error
	// status. The client maps it to its no-data outcome.
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", w.Body.String())
}

func TestGenerateEndpointErrorMapping(t *testing.T) {
	userID := primitive.NewObjectID()

	cases := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"params out of range", service.ErrInvalidGenerationParams, http.StatusBadRequest},
		{"user vanished", service.ErrUserNotFound, http.StatusNotFound},
		{"model transport failure", fmt.Errorf("model call failed: connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svcs := defaultServices()
			svcs.programs.GenerateFunc = func(ctx context.Context, uid primitive.ObjectID, params domain.GenerationParams) (*domain.ProgramDocument, *domain.DebugInfo, error) {
				return nil, nil, tc.err
			}
			router := newTestRouter(svcs)

			body := `{"prompt":"x","numberOfDays":3,"numberOfCycles":1}`
			w := postGenerate(t, router, mintToken(t, userID, domain.TierFree), body)

			require.Equal(t, tc.wantCode, w.Code)
			var resp map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestGenerateEndpointRequiresAuth(t *testing.T) {
	called := false
	svcs := defaultServices()
	svcs.programs.GenerateFunc = func(ctx context.Context, uid primitive.ObjectID, params domain.GenerationParams) (*domain.ProgramDocument, *domain.DebugInfo, error) {
		called = true
		return generatedDoc(uid), nil, nil
	}
	router := newTestRouter(svcs)

	body := `{"prompt":"x","numberOfDays":3,"numberOfCycles":1}`

	t.Run("missing token", func(t *testing.T) {
		w := postGenerate(t, router, "", body)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		w := postGenerate(t, router, "not-a-jwt", body)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		w := postGenerate(t, router, expiredToken(t, primitive.NewObjectID()), body)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		var resp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Token has expired", resp["error"])
	})

	assert.False(t, called, "unauthenticated requests must never reach the service")
}

func TestGenerateEndpointRejectsMalformedBody(t *testing.T) {
	called := false
	svcs := defaultServices()
	svcs.programs.GenerateFunc = func(ctx context.Context, uid primitive.ObjectID, params domain.GenerationParams) (*domain.ProgramDocument, *domain.DebugInfo, error) {
		called = true
		return generatedDoc(uid), nil, nil
	}
	router := newTestRouter(svcs)

	w := postGenerate(t, router, mintToken(t, primitive.NewObjectID(), domain.TierFree), `{"numberOfDays":"three"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, called)
}

func TestWorkoutManagementRoutes(t *testing.T) {
	userID := primitive.NewObjectID()
	token := mintToken(t, userID, domain.TierFree)

	t.Run("get maps document fields", func(t *testing.T) {
		svcs := defaultServices()
		svcs.programs.GetProgramFunc = func(ctx context.Context, uid primitive.ObjectID, programID string) (*domain.ProgramDocument, error) {
			assert.Equal(t, "prog-1", programID)
			return generatedDoc(uid), nil
		}
		router := newTestRouter(svcs)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/workouts/prog-1", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp ProgramResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "prog-1", resp.ID)
		assert.Equal(t, "Strength Block", resp.Name)
		_, ok := resp.Program.Day(domain.DefaultCycleKey, "day2")
		assert.True(t, ok)
	})

	t.Run("get of foreign private program is 403", func(t *testing.T) {
		svcs := defaultServices()
		svcs.programs.GetProgramFunc = func(ctx context.Context, uid primitive.ObjectID, programID string) (*domain.ProgramDocument, error) {
			return nil, service.ErrProgramAccessDenied
		}
		router := newTestRouter(svcs)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/workouts/prog-9", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("update day passes path keys through", func(t *testing.T) {
		var gotCycle, gotDay string
		var gotContent domain.WorkoutDay

		svcs := defaultServices()
		svcs.programs.UpdateDayFunc = func(ctx context.Context, uid primitive.ObjectID, programID, cycleKey, dayKey string, day domain.WorkoutDay) (*domain.ProgramDocument, error) {
			gotCycle, gotDay, gotContent = cycleKey, dayKey, day
			return generatedDoc(uid), nil
		}
		router := newTestRouter(svcs)

		body := `{"day":{"description":"Swapped to pulls","workout":"Rows 4x8"}}`
		req := httptest.NewRequest(http.MethodPut, "/api/v1/workouts/prog-1/cycles/cycle2/days/day4", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "cycle2", gotCycle)
		assert.Equal(t, "day4", gotDay)
		assert.Equal(t, "Rows 4x8", gotContent.Workout)
	})

	t.Run("publish requires the flag", func(t *testing.T) {
		svcs := defaultServices()
		router := newTestRouter(svcs)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/workouts/prog-1/publish", bytes.NewBufferString(`{}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("delete answers no content", func(t *testing.T) {
		svcs := defaultServices()
		svcs.programs.DeleteProgramFunc = func(ctx context.Context, uid primitive.ObjectID, programID string) error {
			return nil
		}
		router := newTestRouter(svcs)

		req := httptest.NewRequest(http.MethodDelete, "/api/v1/workouts/prog-1", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("quota readout", func(t *testing.T) {
		svcs := defaultServices()
		svcs.programs.QuotaFunc = func(ctx context.Context, uid primitive.ObjectID) (service.QuotaStatus, error) {
			return service.QuotaStatus{Used: 2, Limit: 3}, nil
		}
		router := newTestRouter(svcs)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/workouts/quota", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var quota service.QuotaStatus
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &quota))
		assert.Equal(t, int64(2), quota.Used)
		assert.Equal(t, int64(3), quota.Limit)
		assert.False(t, quota.Unlimited)
	})
}
