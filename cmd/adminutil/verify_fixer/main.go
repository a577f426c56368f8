package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/gelsin-dev/gelsin/internal/db"
)

// verify_fixer marks a fixer account as identity-verified by phone number.
// Usage:
//   go run cmd/adminutil/verify_fixer/main.go -phone +905551112233
func main() {
	phone := flag.String("phone", "", "Phone of the fixer to verify")
	flag.Parse()

	if *phone == "" {
		log.Fatalf("usage: go run cmd/adminutil/verify_fixer/main.go -phone +905551112233")
	}

	// Initialize DB from environment variables
	db.Init()

	ct, err := db.Conn.Exec(context.Background(),
		`UPDATE users SET is_verified = TRUE WHERE phone = $1 AND role = 'fixer'`, *phone)
	if err != nil {
		log.Fatalf("failed to verify fixer: %v", err)
	}

	if ct.RowsAffected() == 0 {
		log.Fatalf("no fixer found with phone: %s", *phone)
	}

	fmt.Printf("Fixer %s verified.\n", *phone)
}
