// Command openpgpcard runs the OpenPGP card application core as a
// standalone daemon, speaking APDUs over a Unix-domain socket or a
// PC/SC reader, backed by a persistent BadgerDB store.
package main

import (
	"fmt"
	"os"

	"github.com/marmos91/openpgpcard/cmd/openpgpcard/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
