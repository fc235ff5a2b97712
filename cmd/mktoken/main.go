// mktoken mints a bearer token for one user, for handing to the
// capture client or to curl. Token issuance is an operator action, not
// part of the notes API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	config "github.com/echonotes/backend/config/notes"
	"github.com/echonotes/backend/pkg/jwt"
)

func main() {
	userID := flag.String("user", "", "user identity to embed in the token")
	flag.Parse()

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "usage: mktoken -user <id>   (reads JWT_SECRET from the environment)")
		os.Exit(2)
	}

	cfg := config.MustLoad()

	token, err := jwt.Generate(context.Background(), *userID, cfg.JWTSecret)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mktoken: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
