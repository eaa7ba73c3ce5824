// Command importer bulk loads the insurance claims CSV export into the
// configured claim store without running the HTTP server.
//
//	importer load data/insurance_claims.csv --clear --batch-size 500
//	importer count
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
