package usecase

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"go.uber.org/zap"
)

// auditLine is one structured log line from the order audit trail.
type auditLine struct {
	Level     string  `json:"level"`
	Timestamp float64 `json:"ts"`
	Msg       string  `json:"msg"`
	Kind      string  `json:"kind"`
	Side      string  `json:"side"`
	Quantity  float64 `json:"quantity"`
	StopTicks float64 `json:"stop_ticks"`
	OrderID   string  `json:"order_id"`
	Symbol    string  `json:"symbol"`
}

// SubmissionStat aggregates submissions with the same kind and side.
type SubmissionStat struct {
	Kind          string
	Side          string
	Count         int
	TotalQuantity float64
	AvgStopTicks  float64
}

// AuditSummary is the digest of one audit log file.
type AuditSummary struct {
	Lines       int
	Skipped     int
	Submissions []SubmissionStat
	Submitted   int
	Failed      int
	Errors      int
	First       time.Time
	Last        time.Time
}

// AuditAnalyzer parses the order audit trail offline and aggregates the
// submission activity it records.
type AuditAnalyzer struct {
	logger *zap.Logger
}

func NewAuditAnalyzer(logger *zap.Logger) *AuditAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditAnalyzer{logger: logger}
}

// AnalyzeFile reads one audit log file, line by line. Unparseable lines are
// counted and skipped, never fatal.
func (a *AuditAnalyzer) AnalyzeFile(path string) (*AuditSummary, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening audit log: %w", err)
	}
	defer file.Close()

	summary := &AuditSummary{}
	type key struct{ kind, side string }
	buckets := make(map[key]*SubmissionStat)
	stopTicksSum := make(map[key]float64)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		summary.Lines++

		var line auditLine
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			a.logger.Debug("skipping unparseable line", zap.Int("line", summary.Lines), zap.Error(err))
			summary.Skipped++
			continue
		}

		at := time.Unix(0, int64(line.Timestamp*float64(time.Second)))
		if summary.First.IsZero() || at.Before(summary.First) {
			summary.First = at
		}
		if at.After(summary.Last) {
			summary.Last = at
		}

		switch line.Msg {
		case "submitting bracket order":
			k := key{line.Kind, line.Side}
			b, ok := buckets[k]
			if !ok {
				b = &SubmissionStat{Kind: line.Kind, Side: line.Side}
				buckets[k] = b
			}
			b.Count++
			b.TotalQuantity += line.Quantity
			stopTicksSum[k] += line.StopTicks
		case "order submitted":
			summary.Submitted++
		case "order submission failed":
			summary.Failed++
		default:
			if line.Level == "error" {
				summary.Errors++
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading audit log: %w", err)
	}

	for k, b := range buckets {
		if b.Count > 0 {
			b.AvgStopTicks = stopTicksSum[k] / float64(b.Count)
		}
		summary.Submissions = append(summary.Submissions, *b)
	}
	sort.Slice(summary.Submissions, func(i, j int) bool {
		if summary.Submissions[i].Count != summary.Submissions[j].Count {
			return summary.Submissions[i].Count > summary.Submissions[j].Count
		}
		return summary.Submissions[i].Kind < summary.Submissions[j].Kind
	})

	return summary, nil
}
