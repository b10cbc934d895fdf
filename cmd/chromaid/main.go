// ChromaID - GC-MS peak detection and EI library identification
package main

import (
	"fmt"
	"os"

	"github.com/ChrisMcGann/ChromaID/cmd/chromaid/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
