package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stockwatch/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const getMeResponse = `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"stockwatch","username":"stockwatch_bot"}}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/bottest-token/getMe", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(getMeResponse))
	})
	mux.HandleFunc("/", handler)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := NewClient("test-token", zap.NewNop(),
		WithBaseURL(server.URL), WithHTTPClient(server.Client()))
	require.NoError(t, err)
	return client
}

func TestNewClientRejectsBadToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"ok":false,"error_code":401,"description":"Unauthorized"}`))
	}))
	defer server.Close()

	_, err := NewClient("bad-token", zap.NewNop(),
		WithBaseURL(server.URL), WithHTTPClient(server.Client()))
	assert.Error(t, err)
}

func TestSendMessage(t *testing.T) {
	t.Run("delivers markdown payload", func(t *testing.T) {
		var got map[string]string
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/bottest-token/sendMessage", r.URL.Path)
			require.NoError(t, r.ParseForm())
			got = map[string]string{
				"chat_id":                  r.PostFormValue("chat_id"),
				"text":                     r.PostFormValue("text"),
				"parse_mode":               r.PostFormValue("parse_mode"),
				"disable_web_page_preview": r.PostFormValue("disable_web_page_preview"),
			}
			w.Write([]byte(`{"ok":true,"result":{}}`))
		})

		err := client.SendMessage(context.Background(), 42, "*hello*")
		require.NoError(t, err)
		assert.Equal(t, "42", got["chat_id"])
		assert.Equal(t, "*hello*", got["text"])
		assert.Equal(t, "Markdown", got["parse_mode"])
		assert.Equal(t, "true", got["disable_web_page_preview"])
	})

	t.Run("forbidden means recipient unreachable", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`))
		})

		err := client.SendMessage(context.Background(), 42, "hi")
		assert.ErrorIs(t, err, shared.ErrRecipientUnreachable)
	})

	t.Run("other api errors are transient", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"ok":false,"error_code":429,"description":"Too Many Requests"}`))
		})

		err := client.SendMessage(context.Background(), 42, "hi")
		require.Error(t, err)
		assert.NotErrorIs(t, err, shared.ErrRecipientUnreachable)

		var apiErr *tgbotapi.Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, 429, apiErr.Code)
	})
}

func TestGetUpdates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/getUpdates", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "7", r.PostFormValue("offset"))
		assert.Equal(t, "30", r.PostFormValue("timeout"))
		assert.Equal(t, `["message"]`, r.PostFormValue("allowed_updates"))

		w.Write([]byte(`{"ok":true,"result":[
			{"update_id":8,"message":{"message_id":1,"text":"/start",
			 "from":{"id":42,"first_name":"Asha","username":"asha"},
			 "chat":{"id":42,"type":"private"}}}
		]}`))
	})

	updates, err := client.GetUpdates(context.Background(), 7, 30*time.Second)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, 8, updates[0].UpdateID)
	require.NotNil(t, updates[0].Message)
	assert.Equal(t, "/start", updates[0].Message.Text)
	assert.Equal(t, int64(42), updates[0].Message.Chat.ID)
	assert.Equal(t, "Asha", updates[0].Message.From.FirstName)
}
