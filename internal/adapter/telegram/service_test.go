package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlertPostsToBotAPI(t *testing.T) {
	var (
		gotPath string
		gotMsg  telegramMessage
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotMsg))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := NewNotificationService("token-1", "chat-9").WithAPIURL(server.URL)
	require.True(t, svc.Enabled())

	require.NoError(t, svc.Alert(context.Background(), "intent i-1 failed after 5 attempts"))
	assert.Equal(t, "/bottoken-1/sendMessage", gotPath)
	assert.Equal(t, "chat-9", gotMsg.ChatID)
	assert.Equal(t, "Markdown", gotMsg.ParseMode)
	assert.Contains(t, gotMsg.Text, "intent i-1 failed after 5 attempts")
}

func TestAlertReportsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "chat not found", http.StatusBadRequest)
	}))
	defer server.Close()

	svc := NewNotificationService("token-1", "chat-9").WithAPIURL(server.URL)
	err := svc.Alert(context.Background(), "boom")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestAlertDisabledWithoutCredentials(t *testing.T) {
	svc := NewNotificationService("", "chat-9").WithAPIURL("http://127.0.0.1:1")
	assert.False(t, svc.Enabled())
	assert.NoError(t, svc.Alert(context.Background(), "ignored"))
}
