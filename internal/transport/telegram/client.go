// Package telegram adapts the Telegram Bot API to the bot package.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/paperbot/internal/bot"
	"github.com/kailas-cloud/paperbot/internal/domain"
	"github.com/kailas-cloud/paperbot/internal/metrics"
)

// Receive modes.
const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

// Config holds Bot API settings.
type Config struct {
	Token       string
	APIEndpoint string // format string with token and method, see tgbotapi.APIEndpoint
	Mode        string
	PollTimeout time.Duration
	WebhookURL  string
	SendRate    float64 // messages per second across all chats
}

// Dispatch hands an inbound message to the bot.
type Dispatch func(ctx context.Context, msg bot.Message) error

// Client talks to the Bot API. A session (connect + receive) is restartable;
// the update offset survives restarts so confirmed updates are not replayed.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger

	mu     sync.RWMutex
	api    *tgbotapi.BotAPI
	offset int
}

var _ bot.Sender = (*Client)(nil)

// NewClient creates a Bot API client. It does not contact the API.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.APIEndpoint == "" {
		cfg.APIEndpoint = tgbotapi.APIEndpoint
	}
	if cfg.Mode == "" {
		cfg.Mode = ModePolling
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 60 * time.Second
	}
	if cfg.SendRate <= 0 {
		cfg.SendRate = 25
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.PollTimeout + 15*time.Second},
		limiter: rate.NewLimiter(rate.Limit(cfg.SendRate), 1),
		logger:  logger,
	}
}

// Username returns the bot username once connected.
func (c *Client) Username() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.api == nil {
		return ""
	}
	return c.api.Self.UserName
}

// Connect validates the token with getMe.
func (c *Client) Connect(ctx context.Context) error {
	api := &tgbotapi.BotAPI{
		Token:  c.cfg.Token,
		Client: &ctxClient{ctx: ctx, client: c.http},
		Buffer: 100,
	}
	api.SetAPIEndpoint(c.cfg.APIEndpoint)

	self, err := api.GetMe()
	if err != nil {
		return fmt.Errorf("get me: %w: %w", domain.ErrTransport, err)
	}
	api.Self = self
	// Sends must outlive a session that is being torn down.
	api.Client = c.http

	c.mu.Lock()
	c.api = api
	c.mu.Unlock()

	c.logger.Info("Connected to Telegram", zap.String("username", self.UserName))
	return nil
}

func (c *Client) current() *tgbotapi.BotAPI {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.api
}

// Session returns a restartable connect-and-receive cycle for bot.Supervisor.
func (c *Client) Session(dispatch Dispatch) bot.Session {
	return func(ctx context.Context) error {
		if err := c.Connect(ctx); err != nil {
			return err
		}

		if c.cfg.Mode == ModeWebhook {
			if err := c.setWebhook(); err != nil {
				return err
			}
			<-ctx.Done()
			return ctx.Err() //nolint:wrapcheck // context error
		}

		if err := c.deleteWebhook(); err != nil {
			return err
		}
		return c.poll(ctx, dispatch)
	}
}

func (c *Client) setWebhook() error {
	wh, err := tgbotapi.NewWebhook(c.cfg.WebhookURL)
	if err != nil {
		return fmt.Errorf("webhook url: %w: %w", domain.ErrInvalidConfig, err)
	}
	wh.AllowedUpdates = []string{"message"}
	if _, err := c.current().Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w: %w", domain.ErrTransport, err)
	}
	c.logger.Info("Webhook registered", zap.String("url", redactToken(c.cfg.WebhookURL, c.cfg.Token)))
	return nil
}

func (c *Client) deleteWebhook() error {
	if _, err := c.current().Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("delete webhook: %w: %w", domain.ErrTransport, err)
	}
	return nil
}

// poll long-polls getUpdates until ctx is cancelled or the API fails.
func (c *Client) poll(ctx context.Context, dispatch Dispatch) error {
	api := *c.current()
	api.Client = &ctxClient{ctx: ctx, client: c.http}
	self := api.Self.UserName

	c.logger.Info("Long polling started")
	for {
		if err := ctx.Err(); err != nil {
			return err //nolint:wrapcheck // context error
		}

		c.mu.RLock()
		cfg := tgbotapi.NewUpdate(c.offset)
		c.mu.RUnlock()
		cfg.Timeout = int(c.cfg.PollTimeout / time.Second)
		cfg.AllowedUpdates = []string{"message"}

		updates, err := api.GetUpdates(cfg)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err() //nolint:wrapcheck // context error
			}
			return fmt.Errorf("get updates: %w: %w", domain.ErrTransport, err)
		}

		for _, u := range updates {
			c.mu.Lock()
			if u.UpdateID >= c.offset {
				c.offset = u.UpdateID + 1
			}
			c.mu.Unlock()

			msg, ok := ToMessage(u, self)
			if !ok {
				metrics.UpdatesTotal.WithLabelValues("ignored").Inc()
				continue
			}
			if err := dispatch(ctx, msg); err != nil {
				return fmt.Errorf("dispatch update %d: %w", u.UpdateID, err)
			}
		}
	}
}

// Send delivers one reply, honouring the global send rate. A 429 answer is
// retried once after the delay the API asks for.
func (c *Client) Send(ctx context.Context, r bot.Reply) error {
	api := c.current()
	if api == nil {
		return fmt.Errorf("not connected: %w", domain.ErrTransport)
	}

	msg := tgbotapi.NewMessage(r.ChatID, r.Text)
	msg.ReplyToMessageID = r.ReplyTo
	msg.DisableWebPagePreview = true

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}

		_, err := api.Send(msg)
		if err == nil {
			return nil
		}

		var apiErr *tgbotapi.Error
		if attempt == 0 && errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
			c.logger.Warn("Rate limited by Telegram", zap.Int("retry_after_sec", apiErr.RetryAfter))
			t := time.NewTimer(time.Duration(apiErr.RetryAfter) * time.Second)
			select {
			case <-ctx.Done():
				t.Stop()
				return fmt.Errorf("send message: %w", ctx.Err())
			case <-t.C:
			}
			continue
		}
		return fmt.Errorf("send message: %w: %w", domain.ErrTransport, err)
	}
}

// ToMessage converts an update into a bot message. Updates without text,
// messages from bots and commands addressed to another bot are dropped.
func ToMessage(u tgbotapi.Update, self string) (bot.Message, bool) {
	m := u.Message
	if m == nil || m.Chat == nil || m.Text == "" {
		return bot.Message{}, false
	}
	if m.From != nil && m.From.IsBot {
		return bot.Message{}, false
	}

	msg := bot.Message{
		UpdateID:  u.UpdateID,
		ChatID:    m.Chat.ID,
		MessageID: m.MessageID,
		Text:      m.Text,
	}
	if m.IsCommand() {
		if _, to, ok := strings.Cut(m.CommandWithAt(), "@"); ok && self != "" && !strings.EqualFold(to, self) {
			return bot.Message{}, false
		}
		msg.Command = strings.ToLower(m.Command())
	}
	return msg, true
}

// ctxClient binds outgoing Bot API requests to a session context so a
// pending long poll is aborted on shutdown.
type ctxClient struct {
	ctx    context.Context //nolint:containedctx // tgbotapi.HTTPClient has no context parameter
	client *http.Client
}

func (c *ctxClient) Do(req *http.Request) (*http.Response, error) {
	return c.client.Do(req.WithContext(c.ctx)) //nolint:wrapcheck // passthrough client
}

func redactToken(s, token string) string {
	if token == "" {
		return s
	}
	return strings.ReplaceAll(s, token, "<token>")
}
