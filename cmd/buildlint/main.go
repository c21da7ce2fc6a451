// Package main is the entry point for the buildlint CLI.
package main

import (
	"github.com/justrnr500/buildlint/internal/cmd"
)

func main() {
	cmd.Execute()
}
