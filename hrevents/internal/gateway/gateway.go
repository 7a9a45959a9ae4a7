// Package gateway sends Slack direct messages with per-recipient failure containment.
package gateway

import (
	"context"
	"log/slog"
	"runtime/debug"

	"github.com/hr-events/hr-events/common/logging"
	"github.com/hr-events/hr-events/hrevents/internal/metrics"
	"github.com/hr-events/hr-events/hrevents/internal/models"
	"github.com/hr-events/hr-events/hrevents/internal/settings"
)

// TitleSendFailed labels failed deliveries in the logs.
const TitleSendFailed = "Slack DM Send Failed"

// MessagePoster is the chat.postMessage call. It returns the channel and
// timestamp of the posted message.
type MessagePoster interface {
	PostMessage(ctx context.Context, channel, text string) (string, string, error)
}

// Dialer builds a MessagePoster authenticated with the loaded settings.
type Dialer func(s *models.Settings) MessagePoster

// Receipt identifies a delivered message.
type Receipt struct {
	Channel   string `json:"channel"`
	Timestamp string `json:"ts"`
}

// Gateway delivers direct messages.
type Gateway struct {
	poster MessagePoster
	logger *slog.Logger
}

// New creates a gateway over poster. A nil logger uses slog.Default.
func New(poster MessagePoster, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{poster: poster, logger: logger}
}

// Connect resolves Slack settings and builds a gateway. A missing bot token
// yields settings.ErrConfiguration before any network call.
func Connect(ctx context.Context, loader settings.Loader, dial Dialer, logger *slog.Logger) (*Gateway, error) {
	s, err := loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := settings.Validate(s); err != nil {
		return nil, err
	}
	return New(dial(s), logger), nil
}

// SendDirectMessage posts text to the recipient's Slack user id.
// Failures, including a panicking poster, are logged and reported as a nil
// receipt, never as an error.
func (g *Gateway) SendDirectMessage(ctx context.Context, recipient, text string) (receipt *Receipt) {
	defer func() {
		if r := recover(); r != nil {
			metrics.MessagesFailed.Inc()
			g.logger.ErrorContext(ctx, "Slack direct message send panicked",
				logging.Title(TitleSendFailed),
				logging.SlackUserID(recipient),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			receipt = nil
		}
	}()

	channel, ts, err := g.poster.PostMessage(ctx, recipient, text)
	if err != nil {
		metrics.MessagesFailed.Inc()
		g.logger.ErrorContext(ctx, "Failed to send Slack direct message",
			logging.Title(TitleSendFailed),
			logging.SlackUserID(recipient),
			logging.Error(err),
		)
		return nil
	}

	metrics.MessagesSent.Inc()
	return &Receipt{Channel: channel, Timestamp: ts}
}
