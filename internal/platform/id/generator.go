package id

// Generator creates opaque IDs suitable for external references.
type Generator interface {
	NewID() string
}

// Func adapts a plain function to Generator, handy for deterministic ids in
// tests.
type Func func() string

func (f Func) NewID() string {
	return f()
}
