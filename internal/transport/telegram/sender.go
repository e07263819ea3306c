package telegram

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	deliveryDomain "github.com/reshetovitsme/patchnotes-feed/internal/modules/delivery/domain"
	"github.com/samber/oops"
)

// Sender posts messages to a Telegram channel through the Bot API
type Sender struct {
	bot    *bot.Bot
	chatID string
}

// New creates a Telegram sender. apiURL may be empty to use the public Bot API.
func New(token, apiURL, chatID string) (*Sender, error) {
	opts := []bot.Option{
		bot.WithSkipGetMe(),
	}
	if apiURL != "" {
		opts = append(opts, bot.WithServerURL(apiURL))
	}

	b, err := bot.New(token, opts...)
	if err != nil {
		return nil, oops.With("context", "failed to create telegram bot").Wrap(err)
	}

	return &Sender{
		bot:    b,
		chatID: chatID,
	}, nil
}

// Send posts one message, rendering the **bold**, *italic* and __underline__
// markers as MarkdownV2 entities
func (s *Sender) Send(ctx context.Context, text string, suppressPreview bool) error {
	params := &bot.SendMessageParams{
		ChatID:    s.chatID,
		Text:      RenderMarkdownV2(text),
		ParseMode: models.ParseModeMarkdown,
	}
	if suppressPreview {
		params.LinkPreviewOptions = &models.LinkPreviewOptions{IsDisabled: bot.True()}
	}

	msg, err := s.bot.SendMessage(ctx, params)
	if err != nil {
		return classify(err)
	}

	slog.Debug("Sent telegram message", "chat_id", s.chatID, "message_id", msg.ID, "length", len([]rune(text)))
	return nil
}

var emphasis = regexp.MustCompile(`\*\*([^*\s](?:[^*\n]*[^*\s])?)\*\*|__([^_\s](?:[^_\n]*[^_\s])?)__|\*([^*\s](?:[^*\n]*[^*\s])?)\*`)

// RenderMarkdownV2 escapes text for Telegram's MarkdownV2 and turns paired
// emphasis markers into entities. Unpaired markers, such as one split off by
// chunking, stay literal.
func RenderMarkdownV2(text string) string {
	var sb strings.Builder
	last := 0
	for _, m := range emphasis.FindAllStringSubmatchIndex(text, -1) {
		sb.WriteString(bot.EscapeMarkdown(text[last:m[0]]))
		switch {
		case m[2] >= 0:
			sb.WriteString("*" + bot.EscapeMarkdown(text[m[2]:m[3]]) + "*")
		case m[4] >= 0:
			sb.WriteString("__" + bot.EscapeMarkdown(text[m[4]:m[5]]) + "__")
		default:
			sb.WriteString("_" + bot.EscapeMarkdown(text[m[6]:m[7]]) + "_")
		}
		last = m[1]
	}
	sb.WriteString(bot.EscapeMarkdown(text[last:]))
	return sb.String()
}

// classify turns Bot API failures into delivery errors. Errors without a
// status, such as network failures and server errors, pass through so the
// publisher can retry them.
func classify(err error) error {
	var tooMany *bot.TooManyRequestsError
	if stderrors.As(err, &tooMany) {
		return &deliveryDomain.RateLimitedError{RetryAfter: time.Duration(tooMany.RetryAfter) * time.Second}
	}

	switch {
	case stderrors.Is(err, bot.ErrorTooManyRequests):
		return &deliveryDomain.RateLimitedError{}
	case stderrors.Is(err, bot.ErrorBadRequest):
		return &deliveryDomain.DeliveryError{Code: http.StatusBadRequest, Description: err.Error()}
	case stderrors.Is(err, bot.ErrorUnauthorized):
		return &deliveryDomain.DeliveryError{Code: http.StatusUnauthorized, Description: err.Error()}
	case stderrors.Is(err, bot.ErrorForbidden):
		return &deliveryDomain.DeliveryError{Code: http.StatusForbidden, Description: err.Error()}
	case stderrors.Is(err, bot.ErrorNotFound):
		return &deliveryDomain.DeliveryError{Code: http.StatusNotFound, Description: err.Error()}
	case stderrors.Is(err, bot.ErrorConflict):
		return &deliveryDomain.DeliveryError{Code: http.StatusConflict, Description: err.Error()}
	}

	return err
}
