package services

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/yukikurage/company-task-api/internal/models"
)

// MonthBucket counts completions within one calendar month (UTC).
type MonthBucket struct {
	Year  int
	Month time.Month
	Count int
}

// Label formats the bucket as "YYYY-M". The month is not zero padded.
func (b MonthBucket) Label() string {
	return fmt.Sprintf("%d-%d", b.Year, int(b.Month))
}

// MarshalJSON encodes the bucket as a single-entry object, e.g. {"2024-1":2}.
func (b MonthBucket) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]int{b.Label(): b.Count})
}

func (b *MonthBucket) UnmarshalJSON(data []byte) error {
	var m map[string]int
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if len(m) != 1 {
		return fmt.Errorf("month bucket must have exactly one entry, got %d", len(m))
	}
	for label, count := range m {
		year, month, ok := strings.Cut(label, "-")
		if !ok {
			return fmt.Errorf("invalid month label %q", label)
		}
		y, err := strconv.Atoi(year)
		if err != nil {
			return fmt.Errorf("invalid month label %q: %w", label, err)
		}
		mo, err := strconv.Atoi(month)
		if err != nil || mo < 1 || mo > 12 {
			return fmt.Errorf("invalid month label %q", label)
		}
		*b = MonthBucket{Year: y, Month: time.Month(mo), Count: count}
	}
	return nil
}

// AnalyticsReport is the rollup of a company's tasks.
type AnalyticsReport struct {
	StatusCounts       map[models.TaskStatus]int   `json:"status_counts"`
	PriorityCounts     map[models.TaskPriority]int `json:"priority_counts"`
	CompletedByMonth   []MonthBucket               `json:"completed_by_month"`
	AvgCompletionHours float64                     `json:"avg_completion_hours"`
}

// TaskStats summarizes the tasks visible to one principal.
type TaskStats struct {
	Total          int                         `json:"total"`
	Completed      int                         `json:"completed"`
	Pending        int                         `json:"pending"`
	StatusCounts   map[models.TaskStatus]int   `json:"status_counts"`
	PriorityCounts map[models.TaskPriority]int `json:"priority_counts"`
}

// Aggregate computes the analytics report over tasks.
// Tasks with an empty status or priority are left out of the respective counts.
// Only done tasks with a completion time contribute to the monthly rollup and
// the average completion time.
func Aggregate(tasks []models.Task) AnalyticsReport {
	report := AnalyticsReport{
		StatusCounts:     map[models.TaskStatus]int{},
		PriorityCounts:   map[models.TaskPriority]int{},
		CompletedByMonth: []MonthBucket{},
	}

	type monthKey struct {
		year  int
		month time.Month
	}
	buckets := map[monthKey]int{}
	var totalHours float64
	var completed int

	for i := range tasks {
		t := &tasks[i]
		if t.Status != "" {
			report.StatusCounts[t.Status]++
		}
		if t.Priority != "" {
			report.PriorityCounts[t.Priority]++
		}

		if t.Status != models.TaskStatusDone || t.CompletedAt == nil {
			continue
		}
		at := t.CompletedAt.UTC()
		buckets[monthKey{at.Year(), at.Month()}]++
		totalHours += t.CompletedAt.Sub(t.CreatedAt).Hours()
		completed++
	}

	for k, n := range buckets {
		report.CompletedByMonth = append(report.CompletedByMonth, MonthBucket{Year: k.year, Month: k.month, Count: n})
	}
	sort.Slice(report.CompletedByMonth, func(i, j int) bool {
		a, b := report.CompletedByMonth[i], report.CompletedByMonth[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Month < b.Month
	})

	if completed > 0 {
		report.AvgCompletionHours = totalHours / float64(completed)
	}

	return report
}

// Summarize computes per-principal task stats.
func Summarize(tasks []models.Task) TaskStats {
	stats := TaskStats{
		Total:          len(tasks),
		StatusCounts:   map[models.TaskStatus]int{},
		PriorityCounts: map[models.TaskPriority]int{},
	}
	for i := range tasks {
		t := &tasks[i]
		if t.Status == models.TaskStatusDone {
			stats.Completed++
		}
		if t.Status != "" {
			stats.StatusCounts[t.Status]++
		}
		if t.Priority != "" {
			stats.PriorityCounts[t.Priority]++
		}
	}
	stats.Pending = stats.Total - stats.Completed
	return stats
}
