package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/gelsin-dev/gelsin/internal/db"
)

// promote_admin sets a user's role to 'admin' by phone number.
// Usage:
//   go run cmd/adminutil/promote_admin/main.go -phone +905551112233
func main() {
	phone := flag.String("phone", "", "Phone of the user to promote to admin")
	flag.Parse()

	if *phone == "" {
		log.Fatalf("usage: go run cmd/adminutil/promote_admin/main.go -phone +905551112233")
	}

	// Initialize DB from environment variables
	db.Init()

	ct, err := db.Conn.Exec(context.Background(), `UPDATE users SET role = 'admin' WHERE phone = $1`, *phone)
	if err != nil {
		log.Fatalf("failed to promote user to admin: %v", err)
	}

	if ct.RowsAffected() == 0 {
		log.Fatalf("no user found with phone: %s", *phone)
	}

	fmt.Printf("User %s promoted to admin.\n", *phone)
}
