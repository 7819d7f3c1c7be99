package framework

// Capabilities is a type alias for a list of strings representing capabilities. An object in the
// preferred-object pool declares the capabilities it satisfies, and lookups match against them
// instead of against the object's concrete type.
type Capabilities []string

// Capable is implemented by anything that can be put in the preferred-object pool.
type Capable interface {
	Capabilities() Capabilities
}

// Has returns true if the specified string appears in the list.
func (cs Capabilities) Has(name string) bool {
	for _, c := range cs {
		if c == name {
			return true
		}
	}
	return false
}

// HasAny returns true if any of the specified strings appears in the list.
func (cs Capabilities) HasAny(names ...string) bool {
	for _, name := range names {
		if cs.Has(name) {
			return true
		}
	}
	return false
}
