//go:build !darwin

package permissions

// EnsureCapture is a no-op on non-macOS platforms.
func EnsureCapture() error {
	return nil
}
