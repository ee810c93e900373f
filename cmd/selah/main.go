// Command selah resolves scripture references and matches passages to
// worship songs.
package main

import (
	"fmt"
	"os"

	"github.com/ppiankov/selah/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
