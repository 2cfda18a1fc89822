package ordered

// Tuple is a single key-value entry in a Map.
type Tuple[K comparable, V any] struct {
	Key   K
	Value V
}

// TupleSS is shorthand for the common string-to-string entry.
type TupleSS = Tuple[string, string]

// TupleSA is shorthand for the common string-to-any entry.
type TupleSA = Tuple[string, any]
