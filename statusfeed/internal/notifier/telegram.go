package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/FL-AZ-EIC/fezwd-backend/internal/config"
	"github.com/FL-AZ-EIC/fezwd-backend/statusfeed/internal/model"
	"github.com/FL-AZ-EIC/fezwd-backend/statusfeed/internal/store"
)

// Notifier periodically reports unacknowledged warning/alarm log entries to
// Telegram so an operator notices them without watching the dashboard.
// Disabled unless telegram.enabled is set.
type Notifier struct {
	logs   store.LogStore
	cfg    *config.Config
	client *http.Client
}

func NewNotifier(logs store.LogStore, cfg *config.Config) *Notifier {
	return &Notifier{
		logs:   logs,
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Start launches the digest loop; it stops when ctx is cancelled.
func (n *Notifier) Start(ctx context.Context) {
	if !n.cfg.Telegram.Enabled {
		return
	}

	interval := time.Duration(n.cfg.Telegram.IntervalMinutes) * time.Minute
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				n.generateAndSend(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (n *Notifier) generateAndSend(ctx context.Context) {
	entries, err := n.logs.Recent(ctx, n.cfg.Logs.Retention)
	if err != nil {
		slog.Error("notifier store error", "err", err)
		return
	}

	var pending []model.LogEntry
	for _, e := range entries {
		if e.Ackable() {
			pending = append(pending, e)
		}
	}
	if len(pending) == 0 {
		return
	}

	n.sendReport(ctx, pending)
}

func (n *Notifier) sendReport(ctx context.Context, pending []model.LogEntry) {
	alarms, warnings := 0, 0
	for _, e := range pending {
		if e.Type == model.LogTypeAlarm {
			alarms++
		} else {
			warnings++
		}
	}

	var buf bytes.Buffer
	buf.WriteString("Status digest\n")
	buf.WriteString(fmt.Sprintf("Time: %s\n", time.Now().Format("2006-01-02 15:04")))
	buf.WriteString(fmt.Sprintf("Unacknowledged: %d alarm, %d warning\n", alarms, warnings))
	buf.WriteString("------------------\n")
	for _, e := range pending {
		ts := time.UnixMilli(e.Timestamp).Format("15:04:05")
		buf.WriteString(fmt.Sprintf("[%s] %s %s\n", ts, e.Type, e.Title))
	}

	for _, chatID := range n.cfg.Telegram.ChatIDs {
		n.sendTelegramMessage(ctx, chatID, buf.String())
	}
}

// telegramMessageLimit is Telegram's per-message cap, in characters.
const telegramMessageLimit = 4096

func (n *Notifier) sendTelegramMessage(ctx context.Context, chatID int, text string) {
	text = truncateRunes(text, telegramMessageLimit)

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", n.cfg.Telegram.Token)
	payload, err := json.Marshal(map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	})
	if err != nil {
		slog.Error("notifier marshal error", "err", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		slog.Error("notifier request error", "err", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		slog.Error("failed to send telegram message", "err", err, "chatID", chatID)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		slog.Warn("telegram rejected message", "status", resp.StatusCode, "chatID", chatID)
	}
}

// truncateRunes cuts text to at most limit characters without splitting a
// multi-byte sequence.
func truncateRunes(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	return string([]rune(text)[:limit])
}
