package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/diegodinero/orderpanel/internal/infrastructure/storage"
)

func main() {
	dbPath := flag.String("db", "panel.db", "path to the journal database")
	limit := flag.Int("limit", 50, "max rows per table")
	flag.Parse()

	store, err := storage.NewSQLiteStore(*dbPath)
	if err != nil {
		fmt.Printf("Failed to init sqlite: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	orders, err := store.ListOrders(ctx, *limit)
	if err != nil {
		fmt.Printf("Failed to list orders: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Found %d journaled orders:\n", len(orders))
	for _, o := range orders {
		fmt.Printf("- #%d %s %s %s %s qty=%f price=%f sl_ticks=%f tp_ticks=%f at %s\n",
			o.ID, o.Account, o.Symbol, o.Kind, o.Side,
			o.Quantity, o.Price, o.StopLossTicks, o.TakeProfitTicks,
			o.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	history, err := store.ListPositionHistory(ctx, *limit)
	if err != nil {
		fmt.Printf("Failed to list position history: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Found %d closed positions:\n", len(history))
	for _, h := range history {
		fmt.Printf("- #%d %s %s %s qty=%f entry=%f exit=%f pnl=%f closed %s\n",
			h.ID, h.Account, h.Symbol, h.Side,
			h.Quantity, h.EntryPrice, h.ExitPrice, h.RealizedPnL,
			h.ClosedAt.Format("2006-01-02 15:04:05"))
	}
}
