package audio

import "errors"

var (
	// ErrPermissionDenied reports that no audio input device could be
	// acquired because access was refused.
	ErrPermissionDenied = errors.New("audio input permission denied")
	// ErrDeviceUnavailable reports that acquiring or starting the input
	// device failed for reasons other than permissions.
	ErrDeviceUnavailable = errors.New("audio input device unavailable")
)
