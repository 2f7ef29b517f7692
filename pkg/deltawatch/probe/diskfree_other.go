//go:build !unix

package probe

import "errors"

// ErrUnsupported is returned on platforms without a free-space syscall wrapper.
var ErrUnsupported = errors.New("free space reporting not supported on this platform")

// FreeSpace is not implemented on this platform.
func FreeSpace(string) (uint64, error) {
	return 0, ErrUnsupported
}
