// Command fixengine runs a standalone FIX session engine: one initiator
// or acceptor process driven entirely by a YAML configuration file.
package main

import (
	"os"

	"github.com/quorumfx/fixengine/cmd/fixengine/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
