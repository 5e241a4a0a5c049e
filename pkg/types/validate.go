package types

// ValidateWhere walks a filter tree and validates every condition's
// operator/value arity. Both engines call this before compiling, so arity
// mistakes surface as ErrInvalidFilter instead of engine-level failures.
func ValidateWhere(where []Where) error {
	for _, node := range where {
		switch w := node.(type) {
		case Condition:
			if err := w.Validate(); err != nil {
				return err
			}
		case Group:
			if err := ValidateWhere(w.Children); err != nil {
				return err
			}
		}
	}
	return nil
}
