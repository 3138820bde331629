package analyzer

import (
	"fmt"
	"strings"

	"github.com/funvibe/copperhead/internal/ast"
	"github.com/funvibe/copperhead/internal/typesystem"
)

// Constraint is one of Equality, Generalizing, ClosedOver or Explanation.
// Constraints are solved in the order they are generated.
type Constraint interface {
	fmt.Stringer
	// Origin is the node the constraint was generated for.
	Origin() ast.Node
}

// Equality requires Left and Right to unify.
type Equality struct {
	Left, Right typesystem.Type
	Node        ast.Node
}

func (c *Equality) Origin() ast.Node { return c.Node }
func (c *Equality) String() string {
	return fmt.Sprintf("%s == %s", c.Left, c.Right)
}

// Generalizing binds Binder, a fresh variable, to Value generalized over
// every variable not reachable from Monomorphs.
type Generalizing struct {
	Binder     typesystem.TVar
	Value      typesystem.Type
	Monomorphs []typesystem.Type
	Node       ast.Node
}

func (c *Generalizing) Origin() ast.Node { return c.Node }
func (c *Generalizing) String() string {
	return fmt.Sprintf("%s := generalize(%s) excluding %s", c.Binder, c.Value, typeList(c.Monomorphs))
}

// ClosedOver relates a closure's type to the type of the callable it wraps:
// the trailing parameters of Body take the Closed values, the remaining
// prefix is the closure's own signature.
type ClosedOver struct {
	Type   typesystem.Type
	Closed []typesystem.Type
	Body   typesystem.Type
	Node   ast.Node
}

func (c *ClosedOver) Origin() ast.Node { return c.Node }
func (c *ClosedOver) String() string {
	return fmt.Sprintf("%s == closure(%s, %s)", c.Type, typeList(c.Closed), c.Body)
}

// Explanation resolves a free occurrence: Assumed was created for a name
// that Binder later defined.
type Explanation struct {
	Assumed typesystem.TVar
	Binder  typesystem.Type
	Node    ast.Node
}

func (c *Explanation) Origin() ast.Node { return c.Node }
func (c *Explanation) String() string {
	return fmt.Sprintf("%s explained by %s", c.Assumed, c.Binder)
}

func typeList(ts []typesystem.Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
