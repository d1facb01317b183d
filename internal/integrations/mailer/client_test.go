package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Send(t *testing.T) {
	var received Email
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/internal/emails", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "school@example.com", time.Second)

	err := client.Send(context.Background(), &Email{
		To:       "student@example.com",
		Subject:  "Урок подтверждён",
		Template: "booking_confirmed",
		Data:     map[string]string{"date": "2025-11-20"},
	})
	require.NoError(t, err)
	assert.Equal(t, "school@example.com", received.From)
	assert.Equal(t, "booking_confirmed", received.Template)
}

func TestClient_Send_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{name: "rejected", status: http.StatusUnprocessableEntity, want: ErrRejected},
		{name: "unavailable", status: http.StatusServiceUnavailable, want: ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			err := NewClient(srv.URL, "", time.Second).Send(context.Background(), &Email{To: "a@b.c"})
			assert.ErrorIs(t, err, tt.want)
		})
	}

	err := NewClient("http://unused", "", time.Second).Send(context.Background(), &Email{})
	assert.ErrorIs(t, err, ErrNoRecipient)
}
