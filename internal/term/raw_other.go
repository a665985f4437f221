//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd

package term

import "errors"

var errUnsupported = errors.New("raw terminal mode is not supported on this platform")

type Raw struct{}

func EnterRaw(fd int) (*Raw, error) { return nil, errUnsupported }

func (r *Raw) Restore() error { return nil }
