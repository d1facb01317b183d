package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/DrivingSchool-BookingService/pkg/logger"
	"github.com/m04kA/DrivingSchool-BookingService/pkg/metrics"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func userClaims(sub, role string) Claims {
	return Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Issuer:    "driving-school-auth",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func whoAmI(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	w.Header().Set("X-User", strconv.FormatInt(userID, 10))
	w.Header().Set("X-Admin", strconv.FormatBool(IsAdmin(r.Context())))
	w.WriteHeader(http.StatusOK)
}

func TestAuthenticator_Middleware(t *testing.T) {
	auth := NewAuthenticator(testSecret, "driving-school-auth", logger.NewNop())
	h := auth.Middleware(http.HandlerFunc(whoAmI))

	expired := userClaims("7", "")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	foreignIssuer := userClaims("7", "")
	foreignIssuer.Issuer = "someone-else"

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUser   string
		wantAdmin  string
	}{
		{name: "user", header: "Bearer " + signToken(t, testSecret, userClaims("7", "")), wantStatus: http.StatusOK, wantUser: "7", wantAdmin: "false"},
		{name: "admin", header: "Bearer " + signToken(t, testSecret, userClaims("1", RoleAdmin)), wantStatus: http.StatusOK, wantUser: "1", wantAdmin: "true"},
		{name: "missing", header: "", wantStatus: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "wrong secret", header: "Bearer " + signToken(t, "other", userClaims("7", "")), wantStatus: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + signToken(t, testSecret, expired), wantStatus: http.StatusUnauthorized},
		{name: "foreign issuer", header: "Bearer " + signToken(t, testSecret, foreignIssuer), wantStatus: http.StatusUnauthorized},
		{name: "non numeric subject", header: "Bearer " + signToken(t, testSecret, userClaims("abc", "")), wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/quota", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantUser, rec.Header().Get("X-User"))
				assert.Equal(t, tt.wantAdmin, rec.Header().Get("X-Admin"))
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	h := RequireAdmin(http.HandlerFunc(whoAmI))

	req := httptest.NewRequest(http.MethodGet, "/admin/settings", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithUser(req.Context(), 7, false)))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithUser(req.Context(), 1, true)))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2, 100, time.Minute, logger.NewNop())
	now := time.Date(2025, 11, 20, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/availability", nil)
		req.RemoteAddr = ip + ":5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, do("10.0.0.1").Code)

	rec := do("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// Другой клиент не затронут
	assert.Equal(t, http.StatusOK, do("10.0.0.2").Code)

	// Через секунду токен восстанавливается
	now = now.Add(time.Second)
	assert.Equal(t, http.StatusOK, do("10.0.0.1").Code)
}

func TestRateLimiter_BoundedClients(t *testing.T) {
	rl := NewRateLimiter(10, 10, 3, time.Minute, logger.NewNop())
	now := time.Date(2025, 11, 20, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < 10; i++ {
		now = now.Add(time.Second)
		_, ok := rl.allow("client-" + strconv.Itoa(i))
		require.True(t, ok)
		assert.LessOrEqual(t, rl.Len(), 3)
	}

	// Неактивные клиенты вытесняются целиком
	now = now.Add(2 * time.Minute)
	_, ok := rl.allow("fresh")
	require.True(t, ok)
	assert.Equal(t, 1, rl.Len())
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.5:4321"
	assert.Equal(t, "192.168.1.5", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", clientIP(req))
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "0b7e2f4c-3a1d-4c5e-9f1a-2b3c4d5e6f70")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "0b7e2f4c-3a1d-4c5e-9f1a-2b3c4d5e6f70", seen)
}

func TestMetricsMiddleware(t *testing.T) {
	m := metrics.NewWithRegisterer("test", prometheus.NewRegistry())

	r := mux.NewRouter()
	r.Use(MetricsMiddleware(m))
	r.HandleFunc("/bookings/{bookingId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Methods(http.MethodGet)

	for _, id := range []string{"1", "2"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bookings/"+id, nil))
	}

	count := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/bookings/{bookingId}", "404"))
	assert.Equal(t, float64(2), count)
}
