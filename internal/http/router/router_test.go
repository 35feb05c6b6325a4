package router_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timi233/channel-target-api/internal/auth"
	"github.com/timi233/channel-target-api/internal/config"
	"github.com/timi233/channel-target-api/internal/domain"
	"github.com/timi233/channel-target-api/internal/http/handler"
	"github.com/timi233/channel-target-api/internal/http/middleware"
	"github.com/timi233/channel-target-api/internal/http/router"
	"github.com/timi233/channel-target-api/internal/repository"
	"github.com/timi233/channel-target-api/internal/service"
	"github.com/timi233/channel-target-api/internal/testutil"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:        "Channel Target API",
			Environment: "development",
			Port:        8080,
		},
		Auth: config.AuthConfig{
			JWTSecret: "test-secret",
			Issuer:    "channel-target-api",
			TokenTTL:  3600,
		},
		Allocation: config.AllocationConfig{
			TierWeights: map[string]float64{
				"bronze":   0.6,
				"silver":   1.0,
				"gold":     1.3,
				"platinum": 1.6,
			},
			DefaultWeight: 1.0,
		},
		RateLimit: config.RateLimitConfig{Enabled: false},
	}
}

func setupServer(t *testing.T) (http.Handler, *config.Config) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	cfg := testConfig()
	log := zap.NewNop()

	distributorRepo := repository.NewDistributorRepository(db)
	targetRepo := repository.NewTargetRepository(db)
	allocationRepo := repository.NewAllocationRepository(db)

	weightResolver := service.NewWeightResolver(&cfg.Allocation)
	distributorService := service.NewDistributorService(distributorRepo, log)
	targetService := service.NewTargetService(targetRepo, log)
	allocationService := service.NewAllocationService(
		targetRepo, allocationRepo, distributorRepo, weightResolver, log, db)

	rt := router.NewRouter(
		cfg,
		log,
		db,
		auth.NewMiddleware(cfg, log),
		middleware.NewRateLimiter(&cfg.RateLimit, log),
		handler.NewTargetHandler(targetService, log),
		handler.NewAllocationHandler(allocationService, log),
		handler.NewDistributorHandler(distributorService, log),
	)
	return rt.Setup(), cfg
}

func doJSON(t *testing.T, srv http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestRouter_Health(t *testing.T) {
	srv, _ := setupServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_AuthRequired(t *testing.T) {
	srv, cfg := setupServer(t)

	t.Run("missing token", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/api/v1/targets", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed token", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/api/v1/targets", "garbage", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := auth.GenerateToken(&cfg.Auth, uuid.New(), "Test User", "test@example.com")
		require.NoError(t, err)

		rec := doJSON(t, srv, http.MethodGet, "/api/v1/targets", token, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRouter_AllocationFlow(t *testing.T) {
	srv, cfg := setupServer(t)
	token, err := auth.GenerateToken(&cfg.Auth, uuid.New(), "Test User", "test@example.com")
	require.NoError(t, err)

	// Register two distributors
	var distributors []domain.DistributorDTO
	for _, d := range []struct {
		name string
		tier domain.CooperationTier
	}{
		{"Gold Partner", domain.TierGold},
		{"Silver Partner", domain.TierSilver},
	} {
		rec := doJSON(t, srv, http.MethodPost, "/api/v1/distributors", token, domain.CreateDistributorRequest{
			Name: d.name,
			Tier: d.tier,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		distributors = append(distributors, decode[domain.DistributorDTO](t, rec))
	}

	// Create a yearly target
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/targets", token, domain.CreateTargetRequest{
		Year:        2026,
		TargetType:  domain.TargetTypeYearly,
		GoalMetrics: domain.GoalMetrics{NewSignTarget: 100},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	target := decode[domain.TargetDTO](t, rec)

	// Allocate it across both distributors
	rec = doJSON(t, srv, http.MethodPost,
		fmt.Sprintf("/api/v1/targets/%s/allocations", target.ID), token, domain.AllocateRequest{})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	allocations := decode[[]domain.TargetAllocationDTO](t, rec)
	require.Len(t, allocations, 2)
	assert.InDelta(t, 100, allocations[0].NewSignTarget+allocations[1].NewSignTarget, 1e-9)

	// Record a completion figure
	rec = doJSON(t, srv, http.MethodPut,
		fmt.Sprintf("/api/v1/allocations/%s/completion", allocations[0].ID), token,
		domain.UpdateCompletionRequest{Field: "newSignCompleted", Value: 30})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// The parent target now carries the rolled-up completion
	rec = doJSON(t, srv, http.MethodGet, "/api/v1/targets/"+target.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	reloaded := decode[domain.TargetDTO](t, rec)
	assert.InDelta(t, 30, reloaded.NewSignCompleted, 1e-9)
	assert.Equal(t, domain.AllocationStatusAllocated, reloaded.AllocationStatus)

	// Distributor view embeds the parent target
	rec = doJSON(t, srv, http.MethodGet,
		fmt.Sprintf("/api/v1/distributors/%s/targets", distributors[0].ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	byDistributor := decode[[]domain.TargetAllocationDTO](t, rec)
	require.Len(t, byDistributor, 1)
	require.NotNil(t, byDistributor[0].Target)
	assert.Equal(t, target.ID, byDistributor[0].Target.ID)
}

func TestRouter_ErrorMapping(t *testing.T) {
	srv, cfg := setupServer(t)
	token, err := auth.GenerateToken(&cfg.Auth, uuid.New(), "Test User", "test@example.com")
	require.NoError(t, err)

	t.Run("missing target is 404", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/api/v1/targets/"+uuid.NewString(), token, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("bad uuid is 400", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/api/v1/targets/not-a-uuid", token, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("validation failure is 400 with field errors", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/v1/distributors", token, domain.CreateDistributorRequest{
			Name: "No Tier",
			Tier: domain.CooperationTier("legendary"),
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		apiErr := decode[domain.APIError](t, rec)
		assert.Equal(t, domain.ErrorTypeValidation, apiErr.Type)
		assert.Contains(t, apiErr.Errors, "tier")
	})

	t.Run("duplicate target scope is 409", func(t *testing.T) {
		req := domain.CreateTargetRequest{Year: 2027, TargetType: domain.TargetTypeYearly}
		rec := doJSON(t, srv, http.MethodPost, "/api/v1/targets", token, req)
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = doJSON(t, srv, http.MethodPost, "/api/v1/targets", token, req)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("allocation without distributors is 400", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/v1/targets", token, domain.CreateTargetRequest{
			Year:       2028,
			TargetType: domain.TargetTypeYearly,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		target := decode[domain.TargetDTO](t, rec)

		rec = doJSON(t, srv, http.MethodPost,
			fmt.Sprintf("/api/v1/targets/%s/allocations", target.ID), token, domain.AllocateRequest{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
