package telegram

import (
	"encoding/json"
	"io"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/paperbot/internal/metrics"
)

const maxUpdateBytes = 1 << 20

// WebhookHandler receives updates pushed by Telegram. Malformed bodies are
// acknowledged with 200 so Telegram does not redeliver them forever.
func (c *Client) WebhookHandler(dispatch Dispatch) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var u tgbotapi.Update
		if err := json.NewDecoder(io.LimitReader(r.Body, maxUpdateBytes)).Decode(&u); err != nil {
			c.logger.Warn("Cannot decode webhook update", zap.Error(err))
			w.WriteHeader(http.StatusOK)
			return
		}

		msg, ok := ToMessage(u, c.Username())
		if !ok {
			metrics.UpdatesTotal.WithLabelValues("ignored").Inc()
			w.WriteHeader(http.StatusOK)
			return
		}

		if err := dispatch(r.Context(), msg); err != nil {
			c.logger.Warn("Cannot dispatch webhook update", zap.Int("update_id", u.UpdateID), zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
}
