// Package main provides a one-shot utility for admin-grant key generation.
//
// It emits the asymmetric keypair used to sign and verify administrator
// grants.
package main

import (
	"os"

	"github.com/mintworks/ledger/internal/platform/config"
	"github.com/mintworks/ledger/internal/tools/admingrant"
)

func main() {
	if err := admingrant.Run(os.Stdout, nil); err != nil {
		config.Exitf("generate admin grant key: %v", err)
	}
}
