// Copyright (c) 2026 Javier Podavini (YindSoft)
// Licensed under the MIT License. See LICENSE file in the project root.

package surfacebridge

import "fmt"

// Status is the int32 code exchanged across the ABI boundary, both as the
// return value of the renderer's attach entry points and as the return value
// of the host callback. All codes are non-negative.
type Status int32

const (
	// StatusUnspecified is a failure with no further detail. Minimal renderers
	// that only know "did not work" return it.
	StatusUnspecified Status = 0
	StatusOK          Status = 1

	// Renderer-side failures.
	StatusInvalidSurface    Status = 2
	StatusUnsupportedFormat Status = 3
	StatusInitFailed        Status = 4
	StatusBusy              Status = 5

	// Host-side answers to a callback.
	StatusStale     Status = 6
	StatusDuplicate Status = 7
	StatusRejected  Status = 8
)

func (s Status) String() string {
	switch s {
	case StatusUnspecified:
		return "unspecified"
	case StatusOK:
		return "ok"
	case StatusInvalidSurface:
		return "invalid surface"
	case StatusUnsupportedFormat:
		return "unsupported format"
	case StatusInitFailed:
		return "init failed"
	case StatusBusy:
		return "busy"
	case StatusStale:
		return "stale"
	case StatusDuplicate:
		return "duplicate"
	case StatusRejected:
		return "rejected"
	default:
		return fmt.Sprintf("status(%d)", int32(s))
	}
}

// statusError converts the status returned by a renderer entry point into an
// error. StatusOK yields nil.
func statusError(symbol string, st Status) error {
	switch st {
	case StatusOK:
		return nil
	case StatusBusy:
		return fmt.Errorf("%s: %w", symbol, ErrDoubleAttach)
	default:
		return &RendererError{Symbol: symbol, Status: st}
	}
}
