// Package roster defines the student roster entry type and the fuzzy matcher
// that resolves dictated identifiers against a roster snapshot.
package roster

// Student is one roster entry: a stable numeric ID owned by the store, the
// canonical roll-number (USN), and the canonical display name.
type Student struct {
	ID   int64
	USN  string
	Name string
}
