package pathtree

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// Move is a single step down the binary path tree.
type Move byte

const (
	// Left moves from node n to its even child 2n.
	Left Move = 'L'
	// Right moves from node n to its odd child 2n+1.
	Right Move = 'R'
)

// ErrInvalidPath is returned when a path contains anything other than L/R moves.
var ErrInvalidPath = errors.New("invalid path")

// ErrNonPositive is returned when a path is requested for a value below the root.
var ErrNonPositive = errors.New("value must be >= 1")

// Path is an ordered sequence of moves from the root node 1.
// The empty path is the root itself.
type Path string

// Root is the path of node 1.
const Root Path = ""

// PathOf returns the root-to-node path of n.
//
// The path is the binary representation of n, most significant bit first,
// with the leading 1 dropped: a 0 bit is a Left move, a 1 bit a Right move.
// This is the same as halving n repeatedly until reaching the root.
func PathOf(n *big.Int) (Path, error) {
	if n == nil || n.Sign() <= 0 {
		return Root, ErrNonPositive
	}
	bits := n.Text(2)
	var b strings.Builder
	b.Grow(len(bits) - 1)
	for i := 1; i < len(bits); i++ {
		if bits[i] == '0' {
			b.WriteByte(byte(Left))
		} else {
			b.WriteByte(byte(Right))
		}
	}
	return Path(b.String()), nil
}

// ParsePath validates s and returns it as a Path.
func ParsePath(s string) (Path, error) {
	p := Path(s)
	if err := p.Validate(); err != nil {
		return Root, err
	}
	return p, nil
}

// Validate reports whether every move in p is L or R.
func (p Path) Validate() error {
	for i := 0; i < len(p); i++ {
		if Move(p[i]) != Left && Move(p[i]) != Right {
			return fmt.Errorf("%w: %q at offset %d", ErrInvalidPath, p[i], i)
		}
	}
	return nil
}

// Depth is the number of edges between the root and the node.
func (p Path) Depth() int {
	return len(p)
}

// Child returns the path extended by one move.
func (p Path) Child(m Move) Path {
	return p + Path(rune(m))
}

// Prefix returns the first k moves of p, or p itself when it is shorter.
func (p Path) Prefix(k int) Path {
	if k >= len(p) {
		return p
	}
	if k < 0 {
		return Root
	}
	return p[:k]
}

// Value converts the path back to its node value by repeated doubling.
func (p Path) Value() *big.Int {
	v := big.NewInt(1)
	for i := 0; i < len(p); i++ {
		v.Lsh(v, 1)
		if Move(p[i]) == Right {
			v.SetBit(v, 0, 1)
		}
	}
	return v
}

// Nodes returns every node value from the root down to the node, inclusive.
func (p Path) Nodes() []*big.Int {
	nodes := make([]*big.Int, 0, len(p)+1)
	v := big.NewInt(1)
	nodes = append(nodes, new(big.Int).Set(v))
	for i := 0; i < len(p); i++ {
		v.Lsh(v, 1)
		if Move(p[i]) == Right {
			v.SetBit(v, 0, 1)
		}
		nodes = append(nodes, new(big.Int).Set(v))
	}
	return nodes
}

// String renders the moves, with "root" for the empty path.
func (p Path) String() string {
	if p == Root {
		return "root"
	}
	return string(p)
}

// FormatNodes renders the node values as "1 -> 3 -> 7".
func (p Path) FormatNodes() string {
	nodes := p.Nodes()
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return strings.Join(parts, " -> ")
}
