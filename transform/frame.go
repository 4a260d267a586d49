// SPDX-License-Identifier: MIT

package transform

import (
	"fmt"
	"strings"
)

// Frame tags a coordinate system.
type Frame int

const (
	FrameUnknown Frame = iota
	FrameHead          // head (canonical compute frame)
	FrameMRI           // MRI / surface RAS
	FrameDevice        // MEG device
)

// String provides a stable lower-case identifier.
func (f Frame) String() string {
	switch f {
	case FrameHead:
		return "head"
	case FrameMRI:
		return "mri"
	case FrameDevice:
		return "device"
	default:
		return "unknown"
	}
}

// ParseFrame accepts head, mri or device (case-insensitive, surrounding
// spaces ignored). "meg" is accepted as an alias of device.
func ParseFrame(s string) (Frame, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "head":
		return FrameHead, nil
	case "mri":
		return FrameMRI, nil
	case "device", "meg":
		return FrameDevice, nil
	default:
		return FrameUnknown, fmt.Errorf("transform: unknown frame %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler (YAML/JSON documents).
func (f Frame) MarshalText() ([]byte, error) {
	if f == FrameUnknown {
		return nil, fmt.Errorf("transform: cannot marshal unknown frame")
	}

	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Frame) UnmarshalText(b []byte) error {
	v, err := ParseFrame(string(b))
	if err != nil {
		return err
	}
	*f = v

	return nil
}
