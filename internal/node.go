package internal

import "strings"

// Node identifies one article in one language edition. Title comparisons are
// case-insensitive; language codes are not.
type Node struct {
	Title string
	Lang  string
}

// String renders the node as "lang:title".
func (n Node) String() string { return n.Lang + ":" + n.Title }

// Key returns the node's identity for map lookups.
func (n Node) Key() string { return n.Lang + ":" + strings.ToLower(n.Title) }

// direction tags which end of the search a frontier grows from.
type direction int

const (
	forward direction = iota
	backward
)

func (d direction) other() direction {
	if d == forward {
		return backward
	}
	return forward
}

func (d direction) String() string {
	if d == forward {
		return "forward"
	}
	return "backward"
}
