package analytics

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"hive-dashboard/internal/storage"
)

// DailyStats summarizes one day of chat interactions.
type DailyStats struct {
	Date             string         `json:"date"`
	TotalMessages    int            `json:"total_messages"`
	Outcomes         map[string]int `json:"outcomes"`
	AvgLatencyMillis int64          `json:"avg_latency_ms"`
	AvgTemperature   float64        `json:"avg_temperature"`
	AvgHumidity      float64        `json:"avg_humidity"`
	AvgActivity      float64        `json:"avg_activity"`
}

// AnalyzeDailyLogs aggregates the events that fall on targetDate's calendar day.
func AnalyzeDailyLogs(events []storage.Event, targetDate time.Time) *DailyStats {
	startOfDay := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), 0, 0, 0, 0, targetDate.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	stats := &DailyStats{
		Date:     startOfDay.Format("2006-01-02"),
		Outcomes: make(map[string]int),
	}

	var latency int64
	var temp, hum, act float64
	for _, event := range events {
		if event.Timestamp.Before(startOfDay) || !event.Timestamp.Before(endOfDay) {
			continue
		}
		if event.UserMessage == "" {
			continue
		}
		stats.TotalMessages++
		stats.Outcomes[event.Outcome]++
		latency += event.LatencyMillis
		temp += event.Temperature
		hum += event.Humidity
		act += float64(event.Activity)
	}

	if n := stats.TotalMessages; n > 0 {
		stats.AvgLatencyMillis = latency / int64(n)
		stats.AvgTemperature = temp / float64(n)
		stats.AvgHumidity = hum / float64(n)
		stats.AvgActivity = act / float64(n)
	}
	return stats
}

// GenerateReportSummary renders the stats as plain text for the log.
func (ds *DailyStats) GenerateReportSummary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hive chat activity for %s:\n", ds.Date)
	fmt.Fprintf(&b, "- messages: %d\n", ds.TotalMessages)
	if ds.TotalMessages == 0 {
		return b.String()
	}

	outcomes := make([]string, 0, len(ds.Outcomes))
	for o := range ds.Outcomes {
		outcomes = append(outcomes, o)
	}
	sort.Strings(outcomes)
	for _, o := range outcomes {
		fmt.Fprintf(&b, "- %s: %d\n", o, ds.Outcomes[o])
	}
	fmt.Fprintf(&b, "- avg reply latency: %dms\n", ds.AvgLatencyMillis)
	fmt.Fprintf(&b, "- avg conditions when asked: %.1f°C, %.1f%% humidity, %.0f%% activity\n",
		ds.AvgTemperature, ds.AvgHumidity, ds.AvgActivity)
	return b.String()
}

func (ds *DailyStats) ToJSON() (string, error) {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
