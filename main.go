package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gi8lino/tilecarto/internal/app"
)

var (
	Version = "dev"
	Commit  = "none"
)

func main() {
	if err := app.Run(context.Background(), Version, Commit, os.Args[1:], os.Stdout, os.Getenv); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
