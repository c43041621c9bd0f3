package syntax

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes n and its descendants one per line, indented two spaces per
// level. Tokens show their text; trivia is left out.
func Dump(w io.Writer, n *Node) {
	dump(w, n, 0)
}

func dump(w io.Writer, n *Node, depth int) {
	indent := strings.Repeat("  ", depth)
	if n.IsToken() {
		fmt.Fprintf(w, "%s%s %s %q\n", indent, n.Kind(), n.Span(), n.Text())
		return
	}
	fmt.Fprintf(w, "%s%s %s\n", indent, n.Kind(), n.Span())
	for _, c := range n.Children() {
		dump(w, c, depth+1)
	}
}
