// Command trackmap manages a product's suggested values against a running
// engine. Edits and deletes go through the same conflict and impact
// confirmations as the web editor.
package main

import (
	"os"

	"github.com/charmbracelet/log"
)

func main() {
	if err := newRootCmd(newApp()).Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
