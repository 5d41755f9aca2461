// Package main is the entry point for the Cognova backend server.
package main

import (
	"os"

	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/iranzithierry/cognova-backend/cmd/cognova/app"
)

func main() {
	if err := app.NewServerCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
