package crashreport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/SG-STD/ofox-backend/internal/config"
)

var ErrDisabled = errors.New("crash reporting is not configured")

type Reporter interface {
	Report(ctx context.Context, r Report) error
}

// BotReporter delivers reports through a chat-bot sendMessage endpoint.
type BotReporter struct {
	client  *http.Client
	baseURL string
	token   string
	chatID  string
	log     zerolog.Logger
}

func NewBotReporter(cfg config.CrashReportConfig, log zerolog.Logger) *BotReporter {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &BotReporter{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimSuffix(cfg.APIBase, "/"),
		token:   cfg.BotToken,
		chatID:  cfg.ChatID,
		log:     log,
	}
}

func (b *BotReporter) Enabled() bool {
	return b.token != "" && b.chatID != ""
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// Report sends the summary as plain text, then the stack as a Markdown
// code block. Both sends are attempted.
func (b *BotReporter) Report(ctx context.Context, r Report) error {
	if !b.Enabled() {
		return ErrDisabled
	}
	errSummary := b.send(ctx, sendMessageRequest{ChatID: b.chatID, Text: r.Summary()})
	if errSummary != nil {
		b.log.Error().Err(errSummary).Msg("crash summary delivery failed")
	}
	errStack := b.send(ctx, sendMessageRequest{ChatID: b.chatID, Text: r.CodeBlock(), ParseMode: "Markdown"})
	if errStack != nil {
		b.log.Error().Err(errStack).Msg("crash stack delivery failed")
	}
	return errors.Join(errSummary, errStack)
}

func (b *BotReporter) send(ctx context.Context, msg sendMessageRequest) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", b.baseURL, b.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("send message: unexpected status %d", resp.StatusCode)
	}
	return nil
}
