package filter

// Value is a sealed interface for scalar filter operands.
// Only Null, String, Int, Float and Bool implement it.
type Value interface {
	filterValue()

	// Native returns the value as a driver-friendly Go value.
	Native() any
}

// Null is the JSON null operand. It is only meaningful for eq and ne.
type Null struct{}

func (Null) filterValue() {}
func (Null) Native() any  { return nil }

// String is a string operand, kept byte for byte as given.
type String string

func (String) filterValue()  {}
func (s String) Native() any { return string(s) }

// Int is an integral numeric operand.
type Int int64

func (Int) filterValue()  {}
func (i Int) Native() any { return int64(i) }

// Float is a non-integral numeric operand.
type Float float64

func (Float) filterValue()  {}
func (f Float) Native() any { return float64(f) }

// Bool is a boolean operand.
type Bool bool

func (Bool) filterValue()  {}
func (b Bool) Native() any { return bool(b) }

// IsNull reports whether v is the null operand.
func IsNull(v Value) bool {
	_, ok := v.(Null)
	return ok
}

// Natives converts a list of operands for a builder IN list.
func Natives(vals []Value) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v.Native()
	}
	return out
}
