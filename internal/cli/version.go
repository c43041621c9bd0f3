package cli

import (
	"fmt"
	"io"
)

// Version is the current version of csrefactor
const Version = "0.1.0"

// ShowVersion prints the version line.
func ShowVersion(w io.Writer) {
	fmt.Fprintf(w, "csrefactor version %s\n", Version)
}
