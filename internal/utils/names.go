package utils

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-set/v3"
)

// Names hands out fresh identifiers for one compilation. Every prefix has
// its own counter so the naming domains never alias, and the same supply is
// threaded through repeated runs of a pass.
type Names struct {
	counters map[string]int
	reserved *set.Set[string]
}

func NewNames() *Names {
	return &Names{counters: make(map[string]int), reserved: set.New[string](0)}
}

// Reserve prevents name from ever being handed out.
func (n *Names) Reserve(names ...string) {
	n.reserved.InsertSlice(names)
}

// Fresh returns prefix followed by the next number of its counter.
func (n *Names) Fresh(prefix string) string {
	for {
		c := n.counters[prefix]
		n.counters[prefix] = c + 1
		name := fmt.Sprintf("%s%d", prefix, c)
		if !n.reserved.Contains(name) {
			return name
		}
	}
}

// Rename derives a fresh single-assignment name from an existing one. All
// renamed names share one counter; a numeric suffix from an earlier rename
// is replaced rather than extended.
func (n *Names) Rename(base string) string {
	if i := strings.LastIndexByte(base, '_'); i > 0 && i < len(base)-1 && isDigits(base[i+1:]) {
		base = base[:i]
	}
	for {
		c := n.counters[renameDomain]
		n.counters[renameDomain] = c + 1
		name := fmt.Sprintf("%s_%d", base, c)
		if !n.reserved.Contains(name) {
			return name
		}
	}
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

const renameDomain = "\x00rename"
