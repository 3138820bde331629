package typesystem

import "fmt"

// MismatchError reports two types with different constructors or arities.
type MismatchError struct {
	Left, Right Type
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("type mismatch: %s vs %s", e.Left, e.Right)
}

// OccursError reports an attempt to build an infinite type.
type OccursError struct {
	Var  TVar
	Type Type
}

func (e *OccursError) Error() string {
	return fmt.Sprintf("%s occurs in %s", e.Var, e.Type)
}
