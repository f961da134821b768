// Command accountctl administers the accounts store directly: it runs
// migrations and drives registration, verification and credential checks
// without going through the HTTP API.
package main

import (
	"os"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
