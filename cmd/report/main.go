package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/vitos/crypto_signal_bot/internal/infrastructure/storage"
)

// Prints the trade history and per-symbol realized PnL from the history DB.
func main() {
	dbPath := flag.String("db", "data/history.db", "path to history db")
	limit := flag.Int("limit", 20, "number of recent trades to print")
	flag.Parse()

	store, err := storage.NewSQLiteStore(*dbPath)
	if err != nil {
		fmt.Printf("Failed to open history db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()

	summary, err := store.SummarizeBySymbol(ctx)
	if err != nil {
		fmt.Printf("Failed to summarize trades: %v\n", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tTRADES\tVOLUME\tREALIZED PNL")
	var totalPnL float64
	for _, s := range summary {
		fmt.Fprintf(w, "%s\t%d\t%.2f\t%+.2f\n", s.Symbol, s.Trades, s.Volume, s.RealizedPnL)
		totalPnL += s.RealizedPnL
	}
	fmt.Fprintf(w, "TOTAL\t\t\t%+.2f\n", totalPnL)
	w.Flush()

	trades, err := store.ListTrades(ctx, *limit)
	if err != nil {
		fmt.Printf("Failed to list trades: %v\n", err)
		os.Exit(1)
	}
	if len(trades) == 0 {
		return
	}

	fmt.Printf("\nlast %d trades:\n", len(trades))
	for _, t := range trades {
		fmt.Printf("%s  %-8s %-4s qty=%.8f price=%.2f pnl=%+.2f  %s\n",
			t.CreatedAt.Format("2006-01-02 15:04:05"),
			t.Symbol, t.Side, t.Qty, t.Price, t.RealizedPnL, t.Reason)
	}
}
