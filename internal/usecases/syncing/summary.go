package syncing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vfg2006/ads-sync/internal/domain"
	"github.com/vfg2006/ads-sync/pkg/log"
	"github.com/vfg2006/ads-sync/pkg/utils"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	summaryKind  = "daily_summary"
	summaryColor = "#E62129"
	otherLabel   = "🌐 Other"
)

var printer = message.NewPrinter(language.English)

type category struct {
	label    string
	keywords []string
}

// first match wins, in this order
var categories = []category{
	{label: "🍣 Sushi", keywords: []string{"sushi", "ซูชิ"}},
	{label: "🍜 Ramen", keywords: []string{"ramen", "ราเมน"}},
	{label: "🥟 Dimsum", keywords: []string{"dimsum", "ติ่มซำ"}},
	{label: "🧒 Kids Camp", keywords: []string{"kids", "เด็ก", "camp"}},
}

// Categorize maps an ad to a summary category from its ad and campaign names
func Categorize(adName, campaignName string) string {
	name := strings.ToLower(adName + " " + campaignName)
	for _, c := range categories {
		for _, keyword := range c.keywords {
			if strings.Contains(name, keyword) {
				return c.label
			}
		}
	}
	return otherLabel
}

// BuildDailySummary aggregates date's rows per category plus month-to-date
// totals. It returns nil when nothing spent or converted on date.
func (s *Service) BuildDailySummary(ctx context.Context, date time.Time) (*domain.DailySummary, error) {
	store := s.uow.Store()

	rows, err := store.AdSpendOn(ctx, date)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	// Month to date runs from the first of the send day's month, so the
	// summary sent on the 1st has empty MTD totals.
	var mtdSpend float64
	var mtdLeads int64
	if from := utils.StartOfMonth(date.AddDate(0, 0, 1)); !from.After(date) {
		mtdSpend, mtdLeads, err = store.SpendTotals(ctx, from, date)
		if err != nil {
			return nil, err
		}
	}

	totals := make(map[string]*domain.CategoryTotal, len(categories)+1)
	summary := &domain.DailySummary{
		Date:          date,
		MonthToDate:   domain.CategoryTotal{Name: "MTD", Spend: mtdSpend, Leads: mtdLeads},
		DashboardLink: strings.TrimRight(s.cfg.Notification.CRMBaseURL, "/") + s.cfg.Sync.SummaryDashboardPath,
	}

	for _, row := range rows {
		label := Categorize(row.AdName, row.CampaignName)
		total, ok := totals[label]
		if !ok {
			total = &domain.CategoryTotal{Name: label}
			totals[label] = total
		}
		total.Spend += row.Spend
		total.Leads += row.Leads

		summary.TotalSpend += row.Spend
		summary.TotalLeads += row.Leads
	}

	for _, c := range categories {
		if total, ok := totals[c.label]; ok {
			summary.Categories = append(summary.Categories, *total)
		}
	}
	if total, ok := totals[otherLabel]; ok {
		summary.Categories = append(summary.Categories, *total)
	}

	return summary, nil
}

// SendDailySummary posts yesterday's summary once per day. Before the
// configured local hour it returns ErrSummaryNotDue.
func (s *Service) SendDailySummary(ctx context.Context) (*domain.SyncReport, error) {
	ctx, report := s.begin(ctx, domain.SyncModeSummary)
	stage := report.Stage(stageSummary)

	now := s.now().In(s.cfg.Sync.SummaryLocation())
	if now.Hour() < s.cfg.Sync.SummaryAllowedFromHour {
		report.FinishedAt = s.now()
		log.ForContext(ctx).WithField("hour", now.Hour()).Info("daily summary not due yet")
		return report, ErrSummaryNotDue
	}

	yesterday := utils.StartOfDay(now).AddDate(0, 0, -1)
	period := yesterday.Format(time.DateOnly)

	summary, err := s.BuildDailySummary(ctx, yesterday)
	if err != nil {
		failStage(ctx, stage, err)
		return report, s.finish(ctx, report, nil)
	}

	claimed, err := s.uow.Store().MarkNotificationSent(ctx, summaryKind, period)
	if err != nil {
		failStage(ctx, stage, err)
		return report, s.finish(ctx, report, nil)
	}
	if !claimed {
		stage.Skipped++
		log.ForContext(ctx).WithField("period", period).Info("daily summary already sent")
		return report, s.finish(ctx, report, nil)
	}

	if summary == nil {
		stage.Skipped++
		log.ForContext(ctx).WithField("period", period).Info("no spend data for daily summary")
		return report, s.finish(ctx, report, nil)
	}
	stage.Fetched = len(summary.Categories)

	if err := s.notifier.Notify(ctx, SummaryNotification(summary)); err != nil {
		stage.Failed++
		failStage(ctx, stage, fmt.Errorf("sending daily summary: %w", err))
		return report, s.finish(ctx, report, nil)
	}

	stage.Upserted++
	report.Alerts++
	return report, s.finish(ctx, report, nil)
}

// SummaryNotification renders the summary as plain text plus a LINE flex bubble
func SummaryNotification(summary *domain.DailySummary) domain.Notification {
	date := summary.Date.Format(time.DateOnly)

	lines := make([]string, 0, len(summary.Categories)+3)
	lines = append(lines, fmt.Sprintf("Yesterday: %s, %d leads", baht(summary.TotalSpend), summary.TotalLeads))
	lines = append(lines, fmt.Sprintf("MTD: %s, %d leads", baht(summary.MonthToDate.Spend), summary.MonthToDate.Leads))
	for _, c := range summary.Categories {
		lines = append(lines, fmt.Sprintf("%s: %s, %d leads", c.Name, baht(c.Spend), c.Leads))
	}

	return domain.Notification{
		Title:    printer.Sprintf("📊 Daily Summary for %s: ฿%.2f", date, summary.TotalSpend),
		Message:  strings.Join(lines, "\n"),
		Priority: domain.PriorityLow,
		Metadata: map[string]string{"dashboard": summary.DashboardLink},
		Flex:     summaryBubble(summary),
	}
}

func baht(v float64) string {
	return printer.Sprintf("฿%.0f", v)
}

func text(value string, props map[string]any) map[string]any {
	node := map[string]any{"type": "text", "text": value}
	for k, v := range props {
		node[k] = v
	}
	return node
}

func box(layout string, contents []any, props map[string]any) map[string]any {
	node := map[string]any{"type": "box", "layout": layout, "contents": contents}
	for k, v := range props {
		node[k] = v
	}
	return node
}

func summaryBubble(summary *domain.DailySummary) map[string]any {
	body := []any{
		box("horizontal", []any{
			box("vertical", []any{
				text("Yesterday", map[string]any{"size": "xs", "color": "#aaaaaa"}),
				text(baht(summary.TotalSpend), map[string]any{"weight": "bold", "size": "xl", "color": "#111111"}),
				text(fmt.Sprintf("%d Leads", summary.TotalLeads), map[string]any{"size": "sm", "color": summaryColor, "weight": "bold"}),
			}, nil),
			box("vertical", []any{
				text("MTD Spend", map[string]any{"size": "xs", "color": "#aaaaaa", "align": "end"}),
				text(baht(summary.MonthToDate.Spend), map[string]any{"weight": "bold", "size": "md", "color": "#111111", "align": "end"}),
				text(fmt.Sprintf("%d Leads", summary.MonthToDate.Leads), map[string]any{"size": "xs", "color": "#888888", "align": "end"}),
			}, map[string]any{"justifyContent": "center"}),
		}, nil),
		map[string]any{"type": "separator", "margin": "lg"},
		box("horizontal", []any{
			text("Category", map[string]any{"size": "xs", "color": "#aaaaaa", "flex": 4}),
			text("Spend", map[string]any{"size": "xs", "color": "#aaaaaa", "align": "end", "flex": 3}),
			text("Leads", map[string]any{"size": "xs", "color": "#aaaaaa", "align": "end", "flex": 2}),
		}, map[string]any{"margin": "md"}),
	}

	for _, c := range summary.Categories {
		body = append(body, box("horizontal", []any{
			text(c.Name, map[string]any{"size": "sm", "color": "#555555", "flex": 4}),
			text(baht(c.Spend), map[string]any{"size": "sm", "color": "#111111", "align": "end", "flex": 3}),
			text(fmt.Sprintf("%d", c.Leads), map[string]any{"size": "sm", "color": summaryColor, "align": "end", "weight": "bold", "flex": 2}),
		}, map[string]any{"margin": "sm"}))
	}

	return map[string]any{
		"type": "bubble",
		"header": box("vertical", []any{
			text("Daily Marketing Summary", map[string]any{"weight": "bold", "color": "#ffffff", "size": "lg"}),
			text("Performance for "+summary.Date.Format(time.DateOnly), map[string]any{"color": "#ffffff", "size": "xs"}),
		}, map[string]any{"backgroundColor": summaryColor}),
		"body": box("vertical", body, nil),
		"footer": box("vertical", []any{
			map[string]any{
				"type": "button",
				"action": map[string]any{
					"type":  "uri",
					"label": "Open Dashboard",
					"uri":   summary.DashboardLink,
				},
				"style": "primary",
				"color": summaryColor,
			},
		}, nil),
	}
}
