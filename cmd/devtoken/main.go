// Command devtoken mints an access token signed with the local JWT secret,
// for calling the API without the portal's auth service.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/sparkquest/arcade-api/internal/config"
	"github.com/sparkquest/arcade-api/internal/pkg/jwt"
)

func main() {
	userFlag := flag.String("user", "", "user id (random when empty)")
	role := flag.String("role", jwt.RoleStudent, "role claim: student, parent, instructor or admin")
	tenant := flag.String("tenant", "", "optional tenant id")
	flag.Parse()

	cfg := config.Load()
	if cfg.IsProduction() {
		fmt.Fprintln(os.Stderr, "devtoken refuses to run with ENV=production")
		os.Exit(1)
	}

	userID := uuid.New()
	if *userFlag != "" {
		id, err := uuid.Parse(*userFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid user id: %v\n", err)
			os.Exit(2)
		}
		userID = id
	}

	switch *role {
	case jwt.RoleStudent, jwt.RoleParent, jwt.RoleInstructor, jwt.RoleAdmin:
	default:
		fmt.Fprintf(os.Stderr, "unknown role %q\n", *role)
		os.Exit(2)
	}

	svc := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)
	token, err := svc.GenerateAccessToken(userID, *role, *tenant)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to sign token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("user_id: %s\nrole:    %s\nexpires: %s\n\n%s\n", userID, *role, svc.GetAccessTTL(), token)
}
