// Package storage defines the read-only content tree abstraction and the
// atomic artifact writer.
package storage

// Entry describes one content file found under the root.
type Entry struct {
	// Path is relative to the root, slash-separated, extension included.
	Path string
}

// Provider is the interface for content tree access.
type Provider interface {
	// List returns every content file under the root in lexical walk order.
	List() ([]Entry, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Root returns the absolute root directory.
	Root() string
}
