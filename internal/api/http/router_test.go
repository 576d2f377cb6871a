package http

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/coffeeshop-service/internal/api/http/handlers"
	"github.com/spec-kit/coffeeshop-service/internal/auth"
	"github.com/spec-kit/coffeeshop-service/internal/domain"
	"github.com/spec-kit/coffeeshop-service/internal/events"
	"github.com/spec-kit/coffeeshop-service/internal/observability"
	"github.com/spec-kit/coffeeshop-service/internal/service"
	"github.com/spec-kit/coffeeshop-service/internal/worker"
)

const (
	appIssuer   = "https://coffeeshop.test/"
	appAudience = "drinks"
	appJWKSURL  = "https://coffeeshop.test/.well-known/jwks.json"
)

var (
	baristaPermissions = []string{"get:drinks-detail"}
	managerPermissions = []string{"get:drinks-detail", "post:drinks", "patch:drinks", "delete:drinks"}
)

type memoryDrinkRepository struct {
	drinks map[int64]domain.Drink
	nextID int64
}

func newMemoryDrinkRepository() *memoryDrinkRepository {
	return &memoryDrinkRepository{drinks: map[int64]domain.Drink{}, nextID: 1}
}

func (r *memoryDrinkRepository) Create(ctx context.Context, drink *domain.Drink) error {
	drink.ID = r.nextID
	r.nextID++
	drink.CreatedAt = time.Now()
	drink.UpdatedAt = drink.CreatedAt
	r.drinks[drink.ID] = *drink
	return nil
}

func (r *memoryDrinkRepository) Update(ctx context.Context, drink *domain.Drink) error {
	if _, ok := r.drinks[drink.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.drinks[drink.ID] = *drink
	return nil
}

func (r *memoryDrinkRepository) GetByID(ctx context.Context, id int64) (*domain.Drink, error) {
	drink, ok := r.drinks[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &drink, nil
}

func (r *memoryDrinkRepository) List(ctx context.Context) ([]domain.Drink, error) {
	var result []domain.Drink
	for id := int64(1); id < r.nextID; id++ {
		if drink, ok := r.drinks[id]; ok {
			result = append(result, drink)
		}
	}
	return result, nil
}

func (r *memoryDrinkRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := r.drinks[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.drinks, id)
	return nil
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func buildJWKS(t *testing.T, pub *rsa.PublicKey, kid string) string {
	t.Helper()
	doc, err := json.Marshal(map[string]any{"keys": []map[string]string{{
		"kty": "RSA",
		"use": "sig",
		"alg": "RS256",
		"kid": kid,
		"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}}})
	require.NoError(t, err)
	return string(doc)
}

type testEnv struct {
	app  *fiber.App
	repo *memoryDrinkRepository
	priv *rsa.PrivateKey
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	jwks := buildJWKS(t, &priv.PublicKey, "kid-1")

	client := &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if req.URL.String() == appJWKSURL {
				rec := httptest.NewRecorder()
				rec.Header().Set("Content-Type", "application/json")
				_, _ = rec.WriteString(jwks)
				return rec.Result(), nil
			}
			return &http.Response{StatusCode: http.StatusNotFound, Body: io.NopCloser(bytes.NewReader(nil))}, nil
		}),
	}

	logger := zap.NewNop()
	repo := newMemoryDrinkRepository()
	cache := service.NewMenuCache(nil, time.Minute, logger)
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartMenuCacheWorker(dispatcher, cache, logger)
	drinkService := service.NewDrinkService(repo, cache, dispatcher)

	keySet := auth.NewKeySet(auth.KeySetConfig{URL: appJWKSURL}, client)
	verifier := auth.NewVerifier(keySet, appIssuer, appAudience)

	app := fiber.New()
	RegisterMiddlewares(app, logger, observability.NewMetrics(), 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler(nil),
		Drinks:         handlers.NewDrinksHandler(drinkService),
		AuthMiddleware: auth.NewMiddleware(verifier),
	})

	return &testEnv{app: app, repo: repo, priv: priv}
}

func (e *testEnv) token(t *testing.T, kid string, permissions []string, expiresIn time.Duration) string {
	t.Helper()
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"iss": appIssuer,
		"aud": appAudience,
		"sub": "auth0|caller",
		"iat": now.Unix(),
		"exp": now.Add(expiresIn).Unix(),
	}
	if permissions != nil {
		claims["permissions"] = permissions
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(e.priv)
	require.NoError(t, err)
	return signed
}

func (e *testEnv) seed(t *testing.T, title string) int64 {
	t.Helper()
	drink := &domain.Drink{
		Title:  title,
		Recipe: []domain.Ingredient{{Name: "espresso", Color: "brown", Parts: 1}},
	}
	require.NoError(t, e.repo.Create(context.Background(), drink))
	return drink.ID
}

func (e *testEnv) request(t *testing.T, method, path, bearer string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set(fiber.HeaderAuthorization, bearer)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp.StatusCode, decoded
}

func TestPublicDrinksEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "espresso")

	status, body := env.request(t, fiber.MethodGet, "/drinks", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])

	drinks := body["drinks"].([]any)
	require.Len(t, drinks, 1)
	recipe := drinks[0].(map[string]any)["recipe"].([]any)
	_, hasName := recipe[0].(map[string]any)["name"]
	assert.False(t, hasName, "public listing must hide ingredient names")
}

func TestGuardRejectsBadHeaders(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name   string
		bearer string
		code   string
	}{
		{"absent header", "", "missing_header"},
		{"wrong scheme", "Basic abc", "malformed_header"},
		{"scheme only", "Bearer", "malformed_header"},
		{"extra parts", "Bearer a b", "malformed_header"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := env.request(t, fiber.MethodGet, "/drinks-detail", tc.bearer, nil)
			require.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, float64(http.StatusUnauthorized), body["error"])
			assert.Equal(t, tc.code, body["code"])
		})
	}
}

func TestGuardRejectsBadTokens(t *testing.T) {
	env := newTestEnv(t)

	t.Run("expired", func(t *testing.T) {
		token := env.token(t, "kid-1", managerPermissions, -time.Hour)
		status, body := env.request(t, fiber.MethodGet, "/drinks-detail", "Bearer "+token, nil)
		require.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "token_expired", body["code"])
	})

	t.Run("unknown signing key", func(t *testing.T) {
		token := env.token(t, "kid-rotated-away", managerPermissions, time.Hour)
		status, body := env.request(t, fiber.MethodGet, "/drinks-detail", "Bearer "+token, nil)
		require.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "key_not_found", body["code"])
	})

	t.Run("permissions claim missing", func(t *testing.T) {
		token := env.token(t, "kid-1", nil, time.Hour)
		status, body := env.request(t, fiber.MethodGet, "/drinks-detail", "Bearer "+token, nil)
		require.Equal(t, http.StatusForbidden, status)
		assert.Equal(t, "permissions_missing", body["code"])
	})
}

func TestBaristaPermissions(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "espresso")
	token := env.token(t, "kid-1", baristaPermissions, time.Hour)

	status, body := env.request(t, fiber.MethodGet, "/drinks-detail", "Bearer "+token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	drinks := body["drinks"].([]any)
	require.Len(t, drinks, 1)
	recipe := drinks[0].(map[string]any)["recipe"].([]any)
	assert.Equal(t, "espresso", recipe[0].(map[string]any)["name"])

	status, body = env.request(t, fiber.MethodPost, "/drinks", "Bearer "+token, map[string]any{
		"title":  "cortado",
		"recipe": []map[string]any{{"name": "espresso", "color": "brown", "parts": 1}},
	})
	require.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "unauthorized", body["code"])
	assert.Equal(t, float64(http.StatusForbidden), body["error"])
}

func TestManagerPermissions(t *testing.T) {
	env := newTestEnv(t)
	seeded := env.seed(t, "espresso")
	token := env.token(t, "kid-1", managerPermissions, time.Hour)

	status, _ := env.request(t, fiber.MethodGet, "/drinks", "", nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = env.request(t, fiber.MethodGet, "/drinks-detail", "Bearer "+token, nil)
	require.Equal(t, http.StatusOK, status)

	status, body := env.request(t, fiber.MethodPost, "/drinks", "Bearer "+token, map[string]any{
		"title":  "flat white",
		"recipe": []map[string]any{{"name": "espresso", "color": "brown", "parts": 1}, {"name": "milk", "color": "white", "parts": 2}},
	})
	require.Equal(t, http.StatusOK, status)
	created := body["drinks"].([]any)[0].(map[string]any)
	assert.Equal(t, "flat white", created["title"])

	status, body = env.request(t, fiber.MethodPatch, fmt.Sprintf("/drinks/%d", seeded), "Bearer "+token, map[string]any{
		"title": "double espresso",
	})
	require.Equal(t, http.StatusOK, status)
	patched := body["drinks"].([]any)[0].(map[string]any)
	assert.Equal(t, "double espresso", patched["title"])

	status, body = env.request(t, fiber.MethodDelete, fmt.Sprintf("/drinks/%d", seeded), "Bearer "+token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(seeded), body["delete"])
}

func TestValidationAndNotFound(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "kid-1", managerPermissions, time.Hour)

	t.Run("create without title", func(t *testing.T) {
		status, body := env.request(t, fiber.MethodPost, "/drinks", "Bearer "+token, map[string]any{
			"recipe": []map[string]any{{"name": "espresso", "color": "brown", "parts": 1}},
		})
		require.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, false, body["success"])
	})

	t.Run("patch unknown id", func(t *testing.T) {
		status, body := env.request(t, fiber.MethodPatch, "/drinks/999", "Bearer "+token, map[string]any{
			"title": "ghost",
		})
		require.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, float64(http.StatusNotFound), body["error"])
	})

	t.Run("delete unknown id", func(t *testing.T) {
		status, _ := env.request(t, fiber.MethodDelete, "/drinks/999", "Bearer "+token, nil)
		require.Equal(t, http.StatusNotFound, status)
	})
}
