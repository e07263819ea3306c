package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	deliveryDomain "github.com/reshetovitsme/patchnotes-feed/internal/modules/delivery/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "123456:test-token"

type recordedRequest struct {
	path        string
	chatID      string
	text        string
	parseMode   string
	linkPreview string
}

type fakeBotAPI struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	body     string
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseMultipartForm(1 << 20)

	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		path:        r.URL.Path,
		chatID:      r.FormValue("chat_id"),
		text:        r.FormValue("text"),
		parseMode:   r.FormValue("parse_mode"),
		linkPreview: r.FormValue("link_preview_options"),
	})
	status, body := f.status, f.body
	f.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
		body = `{"ok":true,"result":{"message_id":42,"date":1700000000,"chat":{"id":-1001,"type":"channel"},"text":"ok"}}`
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func newTestSender(t *testing.T, api *fakeBotAPI) *Sender {
	t.Helper()

	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	sender, err := New(testToken, server.URL, "@patchnotes")
	require.NoError(t, err)
	return sender
}

func TestSendPostsMarkdownV2(t *testing.T) {
	api := &fakeBotAPI{}
	sender := newTestSender(t, api)

	err := sender.Send(context.Background(), "**Patch 1.2**\n\n• Fixed *crash*", false)
	require.NoError(t, err)

	require.Len(t, api.requests, 1)
	req := api.requests[0]
	assert.Equal(t, "/bot"+testToken+"/sendMessage", req.path)
	assert.Equal(t, "@patchnotes", req.chatID)
	assert.Equal(t, "*Patch 1\\.2*\n\n• Fixed _crash_", req.text)
	assert.Equal(t, "MarkdownV2", req.parseMode)
	assert.Empty(t, req.linkPreview)
}

func TestRenderMarkdownV2(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bold header",
			in:   "**Counter-Strike 2 Update**",
			want: "*Counter\\-Strike 2 Update*",
		},
		{
			name: "italic and underline",
			in:   "Use *smoke* on __Mirage__",
			want: "Use _smoke_ on __Mirage__",
		},
		{
			name: "unpaired marker stays literal",
			in:   "**Patch notes continue",
			want: "\\*\\*Patch notes continue",
		},
		{
			name: "arithmetic is not emphasis",
			in:   "damage 2 * 3 * 4",
			want: "damage 2 \\* 3 \\* 4",
		},
		{
			name: "link",
			in:   "https://example.com/news-1",
			want: "https://example\\.com/news\\-1",
		},
		{
			name: "heading brackets",
			in:   "[ MAPS ]",
			want: "\\[ MAPS \\]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderMarkdownV2(tt.in))
		})
	}
}

func TestSendSuppressesPreview(t *testing.T) {
	api := &fakeBotAPI{}
	sender := newTestSender(t, api)

	require.NoError(t, sender.Send(context.Background(), "body", true))

	require.Len(t, api.requests, 1)
	var options map[string]any
	require.NoError(t, json.Unmarshal([]byte(api.requests[0].linkPreview), &options))
	assert.Equal(t, true, options["is_disabled"])
}

func TestSendRateLimited(t *testing.T) {
	api := &fakeBotAPI{
		status: http.StatusTooManyRequests,
		body:   `{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 3","parameters":{"retry_after":3}}`,
	}
	sender := newTestSender(t, api)

	err := sender.Send(context.Background(), "body", false)
	require.Error(t, err)

	var limited *deliveryDomain.RateLimitedError
	require.ErrorAs(t, err, &limited)
	assert.Equal(t, 3*time.Second, limited.RetryAfter)
}

func TestSendRejected(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		code   int
	}{
		{
			name:   "bad request",
			status: http.StatusBadRequest,
			body:   `{"ok":false,"error_code":400,"description":"Bad Request: message is too long"}`,
			code:   http.StatusBadRequest,
		},
		{
			name:   "forbidden",
			status: http.StatusForbidden,
			body:   `{"ok":false,"error_code":403,"description":"Forbidden: bot is not a member of the channel chat"}`,
			code:   http.StatusForbidden,
		},
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			body:   `{"ok":false,"error_code":401,"description":"Unauthorized"}`,
			code:   http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeBotAPI{status: tt.status, body: tt.body}
			sender := newTestSender(t, api)

			err := sender.Send(context.Background(), "body", false)
			require.Error(t, err)

			var delivery *deliveryDomain.DeliveryError
			require.ErrorAs(t, err, &delivery)
			assert.Equal(t, tt.code, delivery.Code)
		})
	}
}
