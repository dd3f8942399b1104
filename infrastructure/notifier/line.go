package notifier

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/vfg2006/ads-sync/internal/domain"
)

const (
	linePushPath   = "/v2/bot/message/push"
	lineAltTextMax = 400
)

// Line pushes messages to a group through the LINE Messaging API
type Line struct {
	client  *http.Client
	baseURL string
	token   string
	groupID string
}

func NewLine(client *http.Client, baseURL, token, groupID string) *Line {
	return &Line{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		groupID: groupID,
	}
}

func (l *Line) Name() string { return "line" }

func (l *Line) Enabled() bool {
	return l.token != "" && l.groupID != ""
}

func (l *Line) Send(ctx context.Context, n domain.Notification) error {
	text := RenderText(n)

	message := map[string]any{
		"type": "text",
		"text": text,
	}
	if n.Flex != nil {
		message = map[string]any{
			"type":     "flex",
			"altText":  truncate(n.Title, lineAltTextMax),
			"contents": n.Flex,
		}
	}

	payload := map[string]any{
		"to":       l.groupID,
		"messages": []any{message},
	}

	return postJSON(ctx, l.client, l.baseURL+linePushPath, map[string]string{
		"Authorization": "Bearer " + l.token,
	}, payload)
}

// RenderText formats a notification as plain text with metadata lines
func RenderText(n domain.Notification) string {
	var b strings.Builder
	b.WriteString(n.Title)
	if n.Message != "" {
		b.WriteString("\n\n")
		b.WriteString(n.Message)
	}

	if len(n.Metadata) > 0 {
		keys := make([]string, 0, len(n.Metadata))
		for k := range n.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString("\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "\n%s: %s", k, n.Metadata[k])
		}
	}

	return b.String()
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
