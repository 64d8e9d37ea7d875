package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"mcexport/internal/ipc"
	"mcexport/internal/queue"
)

func buildQueueStatusRows(stats map[string]int) [][]string {
	rows := make([][]string, 0, len(stats))
	seen := make(map[string]bool, len(stats))
	for _, status := range queue.AllStatuses() {
		key := string(status)
		if count, ok := stats[key]; ok && count > 0 {
			rows = append(rows, []string{formatStatusLabel(key), fmt.Sprintf("%d", count)})
		}
		seen[key] = true
	}
	var extra []string
	for key, count := range stats {
		if !seen[key] && count > 0 {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		rows = append(rows, []string{formatStatusLabel(key), fmt.Sprintf("%d", stats[key])})
	}
	return rows
}

func buildQueueListRows(items []ipc.QueueItem) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		review := ""
		if item.NeedsReview {
			review = "yes"
			if item.ReviewReason != "" {
				review = item.ReviewReason
			}
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", item.ID),
			item.Title,
			formatStatusLabel(item.Status),
			formatProgress(item),
			review,
			formatAge(item.UpdatedAt),
			item.SourcePath,
		})
	}
	return rows
}

func formatStatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return "Unknown"
	}
	return strings.ToUpper(status[:1]) + status[1:]
}

func formatProgress(item ipc.QueueItem) string {
	if item.Status == string(queue.StatusFailed) && item.ErrorMessage != "" {
		return item.ErrorMessage
	}
	stage := strings.TrimSpace(item.ProgressStage)
	if stage == "" {
		return ""
	}
	if item.ProgressPercent > 0 && item.ProgressPercent < 100 {
		return fmt.Sprintf("%s %.0f%%", stage, item.ProgressPercent)
	}
	return stage
}

func formatAge(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.Time(t)
}
