// Package main provides the entry point for the sorttrace CLI tool.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Sumatoshi-tech/sorttrace/cmd/sorttrace/commands"
	"github.com/Sumatoshi-tech/sorttrace/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	err := commands.Execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
