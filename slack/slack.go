// Package slack posts plan summaries to an incoming webhook.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"vitalia"
)

type Client struct {
	webhookURL string
	httpClient vitalia.HTTPClient
}

func NewClient(webhookURL string, httpClient vitalia.HTTPClient) *Client {
	return &Client{
		webhookURL: webhookURL,
		httpClient: httpClient,
	}
}

type webhookPayload struct {
	Channel string `json:"channel,omitempty"`
	Text    string `json:"text"`
}

func (c *Client) PostMessage(ctx context.Context, channel string, message string) error {
	payload, err := json.Marshal(webhookPayload{Channel: channel, Text: message})
	if err != nil {
		return fmt.Errorf("failed to marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to post message: %s", resp.Status)
	}

	slog.Info("SLACK: Message posted", "channel", channel, "length", len(message))
	return nil
}

// FormatPlan renders a plan as Slack mrkdwn, one line per meal.
func FormatPlan(plan vitalia.DailyPlan, dailyTarget int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Plan VitalIA* (objetivo %d kcal)\n", dailyTarget)
	if plan.Summary != "" {
		fmt.Fprintf(&b, "_%s_\n", plan.Summary)
	}
	fmt.Fprintf(&b, "Macros: %s kcal | P %s | C %s | G %s\n",
		strconv.FormatFloat(plan.Macros.Kcal, 'f', -1, 64),
		plan.Macros.Protein, plan.Macros.Carbs, plan.Macros.Fat)

	for _, m := range plan.Meals {
		fmt.Fprintf(&b, "• *%s*: %s (%s kcal, %s)\n",
			m.Type, m.Name, strconv.FormatFloat(m.Kcal, 'f', -1, 64), m.PrepTime)
	}
	return strings.TrimRight(b.String(), "\n")
}

// PostPlan formats plan and posts it to channel.
func PostPlan(ctx context.Context, client vitalia.SlackClient, channel string, plan vitalia.DailyPlan, dailyTarget int) error {
	if err := client.PostMessage(ctx, channel, FormatPlan(plan, dailyTarget)); err != nil {
		return fmt.Errorf("failed to post plan: %w", err)
	}
	return nil
}
