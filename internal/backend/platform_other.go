//go:build !darwin

package backend

// Platform returns the native backend: a JSON file under $XDG_CONFIG_HOME on
// non-macOS platforms.
func Platform() (Backend, error) {
	return OpenFile(DefaultFilePath()), nil
}
