package analytics

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hive-dashboard/internal/storage"
)

func TestAnalyzeDailyLogs(t *testing.T) {
	testDate := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	events := []storage.Event{
		{Timestamp: testDate.Add(2 * time.Hour), UserMessage: "How is the hive?", AssistantResponse: "Fine", Outcome: "reply", LatencyMillis: 300, Temperature: 35, Humidity: 54, Activity: 80},
		{Timestamp: testDate.Add(4 * time.Hour), UserMessage: "Swarm risk?", AssistantResponse: "fallback", Outcome: "failure", LatencyMillis: 100, Temperature: 34, Humidity: 56, Activity: 90},
		{Timestamp: testDate.Add(6 * time.Hour), UserMessage: "Weight?", AssistantResponse: "fallback", Outcome: "empty", LatencyMillis: 200, Temperature: 36, Humidity: 58, Activity: 70},
		// next day
		{Timestamp: testDate.AddDate(0, 0, 1), UserMessage: "tomorrow", Outcome: "reply"},
		// no user message
		{Timestamp: testDate.Add(8 * time.Hour), AssistantResponse: "[system]"},
	}

	stats := AnalyzeDailyLogs(events, testDate.Add(13*time.Hour))

	assert.Equal(t, "2024-01-15", stats.Date)
	assert.Equal(t, 3, stats.TotalMessages)
	assert.Equal(t, map[string]int{"reply": 1, "failure": 1, "empty": 1}, stats.Outcomes)
	assert.Equal(t, int64(200), stats.AvgLatencyMillis)
	assert.InDelta(t, 35.0, stats.AvgTemperature, 1e-9)
	assert.InDelta(t, 56.0, stats.AvgHumidity, 1e-9)
	assert.InDelta(t, 80.0, stats.AvgActivity, 1e-9)
}

func TestAnalyzeDailyLogs_Empty(t *testing.T) {
	stats := AnalyzeDailyLogs(nil, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 0, stats.TotalMessages)
	assert.Equal(t, "Hive chat activity for 2024-01-15:\n- messages: 0\n", stats.GenerateReportSummary())
}

func TestGenerateReportSummary(t *testing.T) {
	stats := &DailyStats{
		Date:             "2024-01-15",
		TotalMessages:    2,
		Outcomes:         map[string]int{"reply": 1, "failure": 1},
		AvgLatencyMillis: 150,
		AvgTemperature:   35.04,
		AvgHumidity:      55,
		AvgActivity:      88,
	}
	summary := stats.GenerateReportSummary()

	assert.True(t, strings.Index(summary, "- failure: 1") < strings.Index(summary, "- reply: 1"), "outcomes not sorted:\n%s", summary)
	assert.Contains(t, summary, "- messages: 2")
	assert.Contains(t, summary, "avg reply latency: 150ms")
	assert.Contains(t, summary, "35.0°C, 55.0% humidity, 88% activity")
}

func TestToJSON(t *testing.T) {
	stats := &DailyStats{Date: "2024-01-15", TotalMessages: 1, Outcomes: map[string]int{"reply": 1}}
	out, err := stats.ToJSON()
	require.NoError(t, err)

	var back DailyStats
	require.NoError(t, json.Unmarshal([]byte(out), &back))
	assert.Equal(t, *stats, back)
}
