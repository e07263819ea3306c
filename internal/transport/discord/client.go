package discord

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	deliveryDomain "github.com/reshetovitsme/patchnotes-feed/internal/modules/delivery/domain"
	"github.com/reshetovitsme/patchnotes-feed/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// Client posts to a Discord channel and reads its recent history through the
// bot REST API
type Client struct {
	session   *discordgo.Session
	channelID string

	mu   sync.Mutex
	self string
}

// New creates a Discord client. apiURL may be empty to use the public API.
func New(token, apiURL, channelID string) (*Client, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, oops.With("context", "failed to create discord session").Wrap(err)
	}

	// Rate limits and retries are handled by the publisher
	session.ShouldRetryOnRateLimit = false
	session.MaxRestRetries = 0
	session.StateEnabled = false

	if apiURL != "" {
		transport, err := newRewriteTransport(apiURL)
		if err != nil {
			return nil, err
		}
		session.Client = &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		}
	}

	return &Client{
		session:   session,
		channelID: channelID,
	}, nil
}

// Send posts one message to the channel
func (c *Client) Send(ctx context.Context, text string, suppressPreview bool) error {
	data := &discordgo.MessageSend{Content: text}
	if suppressPreview {
		data.Flags = discordgo.MessageFlagsSuppressEmbeds
	}

	msg, err := c.session.ChannelMessageSendComplex(c.channelID, data, discordgo.WithContext(ctx))
	if err != nil {
		return classify(err)
	}

	slog.Debug("Sent discord message", "channel_id", c.channelID, "message_id", msg.ID, "length", len([]rune(text)))
	return nil
}

// Self returns the username of the bot account, cached after the first lookup
func (c *Client) Self(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.self != "" {
		return c.self, nil
	}

	user, err := c.session.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		return "", oops.With("context", "failed to read discord bot user").Wrap(classify(err))
	}

	c.self = user.Username
	return c.self, nil
}

// Recent returns the last n messages of the channel, newest first
func (c *Client) Recent(ctx context.Context, n int) ([]deliveryDomain.HistoryEntry, error) {
	if n <= 0 {
		return []deliveryDomain.HistoryEntry{}, nil
	}

	messages, err := c.session.ChannelMessages(c.channelID, min(n, 100), "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, oops.With("channel_id", c.channelID, "context", "failed to read discord channel history").Wrap(classify(err))
	}

	return lo.FilterMap(messages, func(m *discordgo.Message, _ int) (deliveryDomain.HistoryEntry, bool) {
		if m == nil {
			return deliveryDomain.HistoryEntry{}, false
		}
		entry := deliveryDomain.HistoryEntry{Content: m.Content}
		if m.Author != nil {
			entry.Author = m.Author.Username
		}
		return entry, true
	}), nil
}

// classify maps discordgo failures onto delivery errors. Server errors and
// network failures pass through so the publisher can retry them.
func classify(err error) error {
	var limited *discordgo.RateLimitError
	if stderrors.As(err, &limited) && limited.RateLimit != nil && limited.TooManyRequests != nil {
		return &deliveryDomain.RateLimitedError{RetryAfter: limited.RetryAfter}
	}

	var rest *discordgo.RESTError
	if stderrors.As(err, &rest) && rest.Response != nil {
		status := rest.Response.StatusCode
		if status >= http.StatusInternalServerError {
			return oops.With("status", status).Wrap(err)
		}
		description := string(rest.ResponseBody)
		if rest.Message != nil {
			description = rest.Message.Message
		}
		return &deliveryDomain.DeliveryError{Code: status, Description: description}
	}

	return err
}

// rewriteTransport sends discordgo's requests to another API base URL
type rewriteTransport struct {
	from *url.URL
	to   *url.URL
	next http.RoundTripper
}

func newRewriteTransport(apiURL string) (*rewriteTransport, error) {
	from, err := url.Parse(discordgo.EndpointAPI)
	if err != nil {
		return nil, oops.With("endpoint", discordgo.EndpointAPI).Wrap(err)
	}
	to, err := url.Parse(strings.TrimRight(apiURL, "/") + "/")
	if err != nil || !to.IsAbs() {
		return nil, oops.Code(errors.CodeConfig).With("discord_api_url", apiURL).Errorf("discord API URL must be absolute")
	}
	return &rewriteTransport{from: from, to: to, next: http.DefaultTransport}, nil
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Host != t.from.Host || !strings.HasPrefix(req.URL.Path, t.from.Path) {
		return t.next.RoundTrip(req)
	}

	target := *req.URL
	target.Scheme = t.to.Scheme
	target.Host = t.to.Host
	target.Path = t.to.Path + strings.TrimPrefix(req.URL.Path, t.from.Path)
	target.RawPath = ""

	rewritten := req.Clone(req.Context())
	rewritten.URL = &target
	rewritten.Host = target.Host
	return t.next.RoundTrip(rewritten)
}
