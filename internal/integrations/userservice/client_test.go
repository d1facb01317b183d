package userservice

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/DrivingSchool-BookingService/pkg/logger"
)

func TestClient_GetUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/internal/users/7":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":7,"email":"student@example.com","full_name":"Иван Петров"}`))
		case "/internal/users/8":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, logger.NewNop())

	user, err := client.GetUser(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "student@example.com", user.Email)
	assert.Equal(t, "Иван Петров", user.FullName)

	_, err = client.GetUserWithGracefulDegradation(context.Background(), 8)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = client.GetUserWithGracefulDegradation(context.Background(), 9)
	assert.ErrorIs(t, err, ErrServiceDegraded)
}
