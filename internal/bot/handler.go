// Package bot implements the chat commands and the transport supervision loop.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/paperbot/internal/domain"
	"github.com/kailas-cloud/paperbot/internal/domain/paper"
	"github.com/kailas-cloud/paperbot/internal/logger"
	"github.com/kailas-cloud/paperbot/internal/metrics"
	"github.com/kailas-cloud/paperbot/internal/usecase/search"
)

// Static replies.
const (
	HelpText = "Commands:\n" +
		"/paper <query> - find proposals whose number, title or author contains <query> " +
		"(case-insensitive substring match, no fuzzy search)\n" +
		"/search <query> - same as /paper\n" +
		"/about - information about the bot\n" +
		"/help - show this message\n\n" +
		"Papers mentioned in brackets in any message, like [P1234], {N4567} or <P0001R2>, are looked up by number."

	UsageHint = "Usage: /paper <part of number, title or author>"
)

const (
	kindMention = "mention"
	kindIgnored = "ignored"
)

// Handler answers commands and paper mentions.
type Handler struct {
	search    Searcher
	format    Formatter
	sender    Sender
	aboutText string
	logger    *zap.Logger
}

// NewHandler creates a Handler. sourceURL is shown by the about command.
func NewHandler(s Searcher, f Formatter, sender Sender, sourceURL string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		search: s,
		format: f,
		sender: sender,
		aboutText: "This bot searches the index of C++ standardization papers (" + sourceURL + "). " +
			"The index is refreshed periodically; use /help to see the commands.",
		logger: logger,
	}
}

// Handle processes one message and sends zero or more replies.
func (h *Handler) Handle(ctx context.Context, msg Message) error {
	start := time.Now()
	kind := msg.Command
	if kind == "" {
		kind = kindMention
	}

	log := h.logger.With(
		zap.Int("update_id", msg.UpdateID),
		zap.Int64("chat_id", msg.ChatID),
		zap.String("command", kind),
	)
	ctx = logger.ContextWithLogger(ctx, log)

	var (
		replies []string
		res     search.Result
	)
	switch msg.Command {
	case "paper", "search":
		query, err := search.ExtractQuery(msg.Text)
		if errors.Is(err, domain.ErrMissingQuery) {
			replies = []string{UsageHint}
			break
		}
		res = h.search.Search(ctx, query)
		replies = h.format.Format(query, res)
	case "help", "start":
		replies = []string{HelpText}
	case "about":
		replies = []string{h.aboutText}
	case "":
		mentions := paper.FindMentions(msg.Text)
		if len(mentions) == 0 {
			kind = kindIgnored
			break
		}
		patterns := make([]string, 0, len(mentions))
		for _, m := range mentions {
			patterns = append(patterns, m.Pattern())
		}
		res = h.search.SearchKeys(ctx, patterns...)
		replies = h.format.Format(strings.Join(patterns, ", "), res)
	default:
		kind = kindIgnored
	}
	metrics.UpdatesTotal.WithLabelValues(kind).Inc()

	sent, err := h.send(ctx, msg, replies)

	fields := []zap.Field{
		zap.String("kind", kind),
		zap.Int("results", len(res.Papers)),
		zap.Bool("capped", res.Capped),
		zap.Int("messages", sent),
		zap.Duration("latency", time.Since(start)),
	}
	if err != nil {
		log.Warn("update_failed", append(fields, zap.Error(err))...)
		return err
	}
	if kind != kindIgnored {
		log.Info("update", fields...)
	}
	return nil
}

func (h *Handler) send(ctx context.Context, msg Message, texts []string) (int, error) {
	for i, text := range texts {
		err := h.sender.Send(ctx, Reply{ChatID: msg.ChatID, ReplyTo: msg.MessageID, Text: text})
		if err != nil {
			metrics.MessagesSentTotal.WithLabelValues("error").Inc()
			return i, fmt.Errorf("send reply %d/%d: %w", i+1, len(texts), err)
		}
		metrics.MessagesSentTotal.WithLabelValues("success").Inc()
	}
	return len(texts), nil
}
