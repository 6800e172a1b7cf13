// Command devtoken signs an access token for local testing. Real tokens come
// from the identity service.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"hrdesk/internal/domain/auth"
	"hrdesk/internal/platform/config"
)

func main() {
	var (
		userID     = flag.String("user", "", "user id (uid claim)")
		employeeID = flag.String("employee", "", "employee id (eid claim)")
		role       = flag.String("role", string(auth.RoleUser), "admin, supervisor or user")
		ttl        = flag.Duration("ttl", 12*time.Hour, "token lifetime")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("devtoken refuses to run with APP_ENV=production")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}
	claims := auth.Claims{UserID: *userID, EmployeeID: *employeeID, Role: auth.Role(*role)}
	if !claims.Principal().Authenticated() {
		log.Fatal("user and a valid role are required")
	}
	token, err := auth.GenerateToken(cfg.JWTSecret, claims, *ttl)
	if err != nil {
		log.Fatalf("sign token: %v", err)
	}
	fmt.Println(token)
}
