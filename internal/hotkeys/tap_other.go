//go:build !darwin

package hotkeys

import "context"

// Run always fails: the event tap exists only on macOS. Use a ReaderSource
// to drive the daemon elsewhere.
func (s *TapSource) Run(ctx context.Context, handler Handler) error {
	return ErrUnsupported
}
