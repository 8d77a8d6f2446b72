package bot

import (
	"context"

	"github.com/kailas-cloud/paperbot/internal/usecase/search"
)

// Searcher runs catalog searches.
type Searcher interface {
	Search(ctx context.Context, text string) search.Result
	SearchKeys(ctx context.Context, patterns ...string) search.Result
}

// Formatter renders results into chat messages.
type Formatter interface {
	Format(query string, res search.Result) []string
}

// Sender delivers one outbound message.
type Sender interface {
	Send(ctx context.Context, r Reply) error
}

// Message is an inbound chat message, already stripped of transport details.
type Message struct {
	UpdateID  int
	ChatID    int64
	MessageID int
	// Command is the command name without slash and bot suffix, empty for plain text.
	Command string
	Text    string
}

// Reply is an outbound chat message.
type Reply struct {
	ChatID  int64
	ReplyTo int
	Text    string
}
