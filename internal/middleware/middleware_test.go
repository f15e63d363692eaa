package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-jwt-secret-key-32-characters")

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return token
}

func validClaims(uid interface{}, role string) jwt.MapClaims {
	return jwt.MapClaims{
		"uid":  uid,
		"role": role,
		"iat":  time.Now().Add(-time.Minute).Unix(),
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetUint(UserIDKey), "role": c.GetString(UserRoleKey)})
	})
	router.GET("/test", handlers...)
	return router
}

func perform(router http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestJWTAuth(t *testing.T) {
	router := newRouter(JWTAuth(testSecret))

	testCases := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Token abc", wantStatus: http.StatusUnauthorized},
		{name: "empty token", header: "Bearer ", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer not.a.jwt", wantStatus: http.StatusUnauthorized},
		{
			name:       "wrong secret",
			header:     "Bearer " + signToken(t, []byte("another-secret"), validClaims("7", models.RoleUser)),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "expired token",
			header: "Bearer " + signToken(t, testSecret, jwt.MapClaims{
				"uid": "7", "role": models.RoleUser, "exp": time.Now().Add(-time.Hour).Unix(),
			}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "missing uid",
			header:     "Bearer " + signToken(t, testSecret, jwt.MapClaims{"role": models.RoleUser}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "unknown role",
			header:     "Bearer " + signToken(t, testSecret, validClaims("7", "superuser")),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "string uid",
			header:     "Bearer " + signToken(t, testSecret, validClaims("7", models.RoleUser)),
			wantStatus: http.StatusOK,
		},
		{
			name:       "numeric uid",
			header:     "Bearer " + signToken(t, testSecret, validClaims(7, models.RoleAdmin)),
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			w := perform(router, tt.header)
			assert.Equal(t, tt.wantStatus, w.Code)

			if tt.wantStatus == http.StatusOK {
				var body map[string]interface{}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, float64(7), body["user_id"])
				return
			}
			var apiErr models.APIError
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
			assert.Equal(t, models.CodeUnauthorized, apiErr.Code)
		})
	}
}

func TestOptionalJWTAuth(t *testing.T) {
	router := newRouter(OptionalJWTAuth(testSecret))

	w := perform(router, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id": 0, "role": ""}`, w.Body.String())

	w = perform(router, "Bearer "+signToken(t, testSecret, validClaims("3", models.RoleUser)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id": 3, "role": "user"}`, w.Body.String())

	w = perform(router, "Bearer broken")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole(t *testing.T) {
	router := newRouter(JWTAuth(testSecret), RequireRole(models.RoleAdmin))

	w := perform(router, "Bearer "+signToken(t, testSecret, validClaims("1", models.RoleAdmin)))
	assert.Equal(t, http.StatusOK, w.Code)

	w = perform(router, "Bearer "+signToken(t, testSecret, validClaims("2", models.RoleUser)))
	assert.Equal(t, http.StatusForbidden, w.Code)

	var apiErr models.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	assert.Equal(t, models.CodeForbidden, apiErr.Code)
	assert.Equal(t, models.RoleAdmin, apiErr.Details["required_role"])

	unauthenticated := newRouter(RequireRole(models.RoleAdmin))
	assert.Equal(t, http.StatusUnauthorized, perform(unauthenticated, "").Code)
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	router := newRouter(RequestLogger(logger))

	w := perform(router, "")
	assert.Equal(t, http.StatusOK, w.Code)
	requestID := w.Header().Get(RequestIDHeader)
	assert.Len(t, requestID, 36)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, requestID, entry["request_id"])
	assert.Equal(t, "/test", entry["path"])
	assert.Equal(t, float64(http.StatusOK), entry["status"])

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(RequestIDHeader, "0b4cfb47-1a8e-4ab8-8f5e-5f3bd3c1a3a2")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "0b4cfb47-1a8e-4ab8-8f5e-5f3bd3c1a3a2", w.Header().Get(RequestIDHeader))
}

func TestRateLimitMiddlewareWithoutRedis(t *testing.T) {
	var limiter *RateLimiter
	router := newRouter(limiter.RateLimitMiddleware())
	assert.Equal(t, http.StatusOK, perform(router, "").Code)

	router = newRouter(NewRecipeCreationRateLimiter(nil, 1).RateLimitMiddleware())
	assert.Equal(t, http.StatusOK, perform(router, "").Code)
}

func TestRateLimitMiddlewareFailsOpen(t *testing.T) {
	// Nothing listens on this port, so every Redis call errors out
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })

	limiter := NewRecipeCreationRateLimiter(client, 1)
	router := newRouter(JWTAuth(testSecret), limiter.RateLimitMiddleware())
	header := "Bearer " + signToken(t, testSecret, validClaims("5", models.RoleUser))

	for i := 0; i < 3; i++ {
		w := perform(router, header)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "rate limit check failed", w.Header().Get("X-RateLimit-Error"))
	}
}

func TestRateLimitMiddlewareCountsPerUser(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	limiter := NewRecipeCreationRateLimiter(client, 2)
	router := newRouter(JWTAuth(testSecret), limiter.RateLimitMiddleware())
	first := "Bearer " + signToken(t, testSecret, validClaims("7", models.RoleUser))
	second := "Bearer " + signToken(t, testSecret, validClaims("8", models.RoleUser))

	for _, remaining := range []string{"1", "0"} {
		w := perform(router, first)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, remaining, w.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
		assert.Empty(t, w.Header().Get("X-RateLimit-Error"))
	}

	w := perform(router, first)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	var body models.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, models.CodeTooManyRequests, body.Code)
	require.Contains(t, body.Details, "retry_after")
	retryAfter, ok := body.Details["retry_after"].(float64)
	require.True(t, ok)
	assert.GreaterOrEqual(t, retryAfter, float64(0))
	assert.LessOrEqual(t, retryAfter, time.Hour.Seconds())

	w = perform(router, second)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	keys := mr.Keys()
	assert.Len(t, keys, 2)
	for _, key := range keys {
		assert.Contains(t, key, "rate_limit:recipe_creation:")
		assert.Greater(t, mr.TTL(key), time.Duration(0))
	}
}

func TestRateLimiterIsAllowed(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	limiter := NewRateLimiter(client, RateLimitConfig{Window: time.Minute, Limit: 1, KeyPrefix: "test"})
	ctx := context.Background()

	allowed, remaining, reset, err := limiter.IsAllowed(ctx, "42")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 0, remaining)
	assert.True(t, reset.After(time.Now()))

	allowed, remaining, _, err = limiter.IsAllowed(ctx, "42")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 0, remaining)

	allowed, _, _, err = limiter.IsAllowed(ctx, "43")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestNewRedisClient(t *testing.T) {
	client, err := NewRedisClient(context.Background(), "")
	assert.NoError(t, err)
	assert.Nil(t, client)

	_, err = NewRedisClient(context.Background(), "not-a-redis-url")
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	client, err = NewRedisClient(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	require.NotNil(t, client)
	assert.NoError(t, client.Close())
}
