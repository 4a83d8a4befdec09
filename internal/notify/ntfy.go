package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/darshan-rambhia/naspanel/internal/model"
)

// NtfyProvider sends notifications via an ntfy server.
type NtfyProvider struct {
	url    string
	topic  string
	client *http.Client
}

// NewNtfy creates a new ntfy notification provider.
func NewNtfy(url, topic string) *NtfyProvider {
	return &NtfyProvider{
		url:    strings.TrimRight(url, "/"),
		topic:  topic,
		client: newHTTPClient(),
	}
}

func (n *NtfyProvider) Name() string { return "ntfy" }

func (n *NtfyProvider) Send(ctx context.Context, notif model.Notification) error {
	endpoint := fmt.Sprintf("%s/%s", n.url, n.topic)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(notif.Message))
	if err != nil {
		return fmt.Errorf("ntfy: build request: %w", err)
	}

	title := notif.Title
	if notif.Host != "" {
		title = fmt.Sprintf("[%s] %s", notif.Host, notif.Title)
	}
	req.Header.Set("Title", title)
	req.Header.Set("Priority", severityToNtfyPriority(notif.Severity))
	req.Header.Set("Tags", ntfyTags(notif))

	if err := do(n.client, req); err != nil {
		return fmt.Errorf("ntfy: %w", err)
	}
	return nil
}

func severityToNtfyPriority(severity string) string {
	switch severity {
	case "critical":
		return "5"
	case "warning":
		return "3"
	case "info":
		return "2"
	default:
		return "3"
	}
}

func ntfyTags(n model.Notification) string {
	var tags []string
	switch n.Severity {
	case "critical":
		tags = append(tags, "rotating_light")
	case "warning":
		tags = append(tags, "warning")
	case "info":
		tags = append(tags, "information_source")
	}
	if strings.HasPrefix(n.AlertType, "disk_") || n.AlertType == "storage_full" {
		tags = append(tags, "floppy_disk")
	}
	if n.AlertType != "" {
		tags = append(tags, n.AlertType)
	}
	return strings.Join(tags, ",")
}
