package interfaces

// ManifestRewriter reads and rewrites the version of one manifest format.
type ManifestRewriter interface {
	// CurrentVersion extracts the version from manifest content
	CurrentVersion(data []byte) (string, error)

	// SetVersion returns data with its version replaced. Content already at version
	// is returned unchanged.
	SetVersion(data []byte, version string) ([]byte, error)
}
