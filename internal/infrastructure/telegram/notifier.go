package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/ports"
)

const defaultAPIBase = "https://api.telegram.org"

// markdownEscaper escapes the legacy Markdown entity characters.
var markdownEscaper = strings.NewReplacer("_", `\_`, "*", `\*`, "`", "\\`", "[", `\[`)

// Notifier sends cycle reports to a Telegram chat via bot API.
type Notifier struct {
	botToken string
	chatID   string
	apiBase  string
	client   *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(botToken, chatID string) *Notifier {
	return &Notifier{
		botToken: botToken,
		chatID:   chatID,
		apiBase:  defaultAPIBase,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// WithAPIBase points the notifier at another Bot API host.
func (n *Notifier) WithAPIBase(base string) *Notifier {
	n.apiBase = strings.TrimRight(base, "/")
	return n
}

// PublishReport posts a Markdown summary of the cycle.
func (n *Notifier) PublishReport(ctx context.Context, report domain.CycleReport) error {
	return n.send(ctx, FormatReport(report))
}

func (n *Notifier) send(ctx context.Context, text string) error {
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", text)
	form.Set("parse_mode", "Markdown")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}

// FormatReport renders the message body.
func FormatReport(r domain.CycleReport) string {
	var b strings.Builder

	if r.Failed() {
		b.WriteString("*News cycle failed*\n")
		fmt.Fprintf(&b, "Error: %s\n", escape(r.Error))
	} else {
		b.WriteString("*News cycle finished with source failures*\n")
	}

	fmt.Fprintf(&b, "Policy: %s\nFetched: %d, added: %d, classified: %d\n",
		escape(string(r.Policy)), r.Fetched, r.Persisted, r.Classified)

	for _, f := range r.FailedSources {
		fmt.Fprintf(&b, "- %s: %s\n", escape(f.Source), escape(f.Error))
	}

	return b.String()
}

func escape(s string) string {
	return markdownEscaper.Replace(s)
}
