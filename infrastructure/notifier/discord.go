package notifier

import (
	"context"
	"net/http"
	"sort"

	"github.com/vfg2006/ads-sync/internal/domain"
)

const (
	colorHigh    = 0xff0000
	colorMedium  = 0xffff00
	colorDefault = 0x00ff00
)

// Discord posts embeds to a webhook
type Discord struct {
	client     *http.Client
	webhookURL string
}

func NewDiscord(client *http.Client, webhookURL string) *Discord {
	return &Discord{client: client, webhookURL: webhookURL}
}

func (d *Discord) Name() string { return "discord" }

func (d *Discord) Enabled() bool {
	return d.webhookURL != ""
}

type DiscordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type DiscordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Color       int            `json:"color"`
	Fields      []DiscordField `json:"fields"`
}

func (d *Discord) Send(ctx context.Context, n domain.Notification) error {
	return postJSON(ctx, d.client, d.webhookURL, nil, map[string]any{
		"embeds": []DiscordEmbed{BuildEmbed(n)},
	})
}

// BuildEmbed maps priority to colour and metadata to inline fields
func BuildEmbed(n domain.Notification) DiscordEmbed {
	embed := DiscordEmbed{
		Title:       n.Title,
		Description: n.Message,
		Color:       colorDefault,
		Fields:      []DiscordField{},
	}

	switch n.Priority {
	case domain.PriorityHigh:
		embed.Color = colorHigh
	case domain.PriorityMedium:
		embed.Color = colorMedium
	}

	keys := make([]string, 0, len(n.Metadata))
	for k := range n.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		embed.Fields = append(embed.Fields, DiscordField{Name: k, Value: n.Metadata[k], Inline: true})
	}

	return embed
}
