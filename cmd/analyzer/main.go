package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/diegodinero/orderpanel/internal/usecase"
)

func main() {
	logPath := flag.String("log", "orders.log", "path to the order audit log")
	flag.Parse()

	fmt.Printf("Analyzing file: %s\n", *logPath)

	analyzer := usecase.NewAuditAnalyzer(nil)
	summary, err := analyzer.AnalyzeFile(*logPath)
	if err != nil {
		fmt.Printf("Error analyzing audit log: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Lines: %d (skipped %d)\n", summary.Lines, summary.Skipped)
	if !summary.First.IsZero() {
		fmt.Printf("Span: %s .. %s\n",
			summary.First.Format("2006-01-02 15:04:05"),
			summary.Last.Format("2006-01-02 15:04:05"))
	}
	fmt.Printf("Submitted: %d, Failed: %d, Other errors: %d\n",
		summary.Submitted, summary.Failed, summary.Errors)

	fmt.Println("Submissions by kind/side:")
	for _, s := range summary.Submissions {
		fmt.Printf("- %s %s: count=%d total_qty=%.2f avg_sl_ticks=%.1f\n",
			s.Kind, s.Side, s.Count, s.TotalQuantity, s.AvgStopTicks)
	}
}
