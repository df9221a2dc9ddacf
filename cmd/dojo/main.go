package main

import (
	"fmt"
	"os"

	"github.com/noah-isme/dojo-admin-api/internal/cli"
)

// @title Dojo Admin API
// @version 1.0.0
// @description Local API of the dojo administration engine
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
