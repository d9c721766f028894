// Command admintoken mints a bearer token for the admin booking API.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/eventdesk/service-booking/internal/auth"
	"github.com/eventdesk/service-booking/internal/config"
)

func main() {
	subject := flag.String("sub", "", "operator identifier stored as the token subject")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	if *subject == "" {
		fmt.Fprintln(os.Stderr, "-sub is required")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.AdminJWTSecret == "" {
		fmt.Fprintln(os.Stderr, "ADMIN_JWT_SECRET is not set")
		os.Exit(1)
	}

	token, err := auth.NewJWTManager(cfg.AdminJWTSecret, "service-booking").GenerateToken(*subject, auth.RoleAdmin, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
