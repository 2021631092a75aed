// Package main provides the ledger operator CLI.
package main

import (
	"os"

	"github.com/mintworks/ledger/internal/platform/config"
	"github.com/mintworks/ledger/internal/tools/ledgerctl"
)

func main() {
	if err := ledgerctl.Run(os.Args[1:], os.Stdout); err != nil {
		config.Exitf("ledgerctl: %v", err)
	}
}
