package unit

// Fixed is the set of value types a property may carry.
type Fixed interface {
	~uint32 | ~int32 | ~uint64 | ~int64 | ~float32 | ~float64
}

// GetFixed reads a fixed-size typed property.
func GetFixed[T Fixed](u Unit, id PropertyID, scope Scope, element uint32) (T, error) {
	var v T
	err := u.GetProperty(id, scope, element, &v)
	return v, err
}

// SetFixed writes a fixed-size typed property.
func SetFixed[T Fixed](u Unit, id PropertyID, scope Scope, element uint32, v T) error {
	return u.SetProperty(id, scope, element, &v)
}
