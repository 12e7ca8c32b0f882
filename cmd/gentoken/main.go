package main

import (
	"flag"
	"fmt"
	"os"

	"ambulance-dispatch/internal/config"
	"ambulance-dispatch/internal/models"
	"ambulance-dispatch/pkg/identity"
)

// gentoken issues a development token signed with the server's JWT secret.
func main() {
	userID := flag.String("user", "", "user id to put in the token")
	role := flag.String("role", "", "vehicle_driver, ambulance_driver or hospital_admin")
	flag.Parse()

	if *userID == "" || !models.Role(*role).IsValid() {
		fmt.Fprintln(os.Stderr, "Usage: gentoken -user=<USER_ID> -role=<ROLE>")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Identity.Provider != config.IdentityJWT {
		fmt.Fprintln(os.Stderr, "AUTH_PROVIDER must be jwt to issue local tokens")
		os.Exit(1)
	}

	verifier := identity.NewJWTVerifier(cfg.Identity.JWTSecret, cfg.Identity.JWTIssuer, cfg.Identity.JWTAccessTokenTTL)
	token, err := verifier.Issue(*userID, *role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to sign token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
