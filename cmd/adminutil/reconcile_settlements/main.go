package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gelsin-dev/gelsin/internal/db"
	"github.com/gelsin-dev/gelsin/internal/lifecycle"
)

// reconcile_settlements retries escrow release for every completed task that
// still has no settlement row. Safe to run repeatedly.
// Usage:
//   go run cmd/adminutil/reconcile_settlements/main.go
func main() {
	// Initialize DB from environment variables
	db.Init()

	engine := lifecycle.NewEngine(lifecycle.NewPGStore(db.Conn))
	settled, err := engine.ReconcileSettlements(context.Background())
	if err != nil {
		log.Fatalf("reconciliation stopped after %d settlements: %v", settled, err)
	}

	fmt.Printf("Applied %d settlements.\n", settled)
}
