// SPDX-License-Identifier: MIT

package transform

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Record is the deserialized form of a transform file.
// Frames are textual ("mri", "head", "device").
type Record struct {
	Name        string        `json:"name" yaml:"name"`
	From        string        `json:"from" yaml:"from"`
	To          string        `json:"to" yaml:"to"`
	Rotation    [3][3]float64 `json:"rotation" yaml:"rotation"`
	Translation [3]float64    `json:"translation" yaml:"translation"`
}

// Rigid validates the record and returns the transform it describes.
// Any problem is reported as a *LoadError.
func (rec *Record) Rigid() (Rigid, error) {
	if rec == nil {
		return Rigid{}, &LoadError{Source: "<nil>", Reason: "no transform record"}
	}
	from, err := ParseFrame(rec.From)
	if err != nil {
		return Rigid{}, &LoadError{Source: rec.Name, Reason: "bad source frame", Err: err}
	}
	to, err := ParseFrame(rec.To)
	if err != nil {
		return Rigid{}, &LoadError{Source: rec.Name, Reason: "bad destination frame", Err: err}
	}
	move := r3.Vec{X: rec.Translation[0], Y: rec.Translation[1], Z: rec.Translation[2]}
	r, err := New(from, to, rec.Rotation, move)
	if err != nil {
		return Rigid{}, &LoadError{Source: rec.Name, Reason: "malformed rotation", Err: err}
	}

	return r, nil
}

// Resolve returns the MRI→head transform.
//
// Behavior:
//   - identity == true: the identity MRI→head transform; rec is ignored.
//   - otherwise rec must describe mri→head or head→mri (the latter is
//     inverted). A nil record is an error, never an implicit identity.
//
// Errors:
//   - *LoadError wrapping ErrTransformLoad.
func Resolve(identity bool, rec *Record) (Rigid, error) {
	if identity {
		return Identity(FrameMRI, FrameHead), nil
	}
	if rec == nil {
		return Rigid{}, &LoadError{Source: "mri↔head", Reason: "transform required but none was loaded"}
	}
	r, err := rec.Rigid()
	if err != nil {
		return Rigid{}, err
	}

	switch {
	case r.From == FrameMRI && r.To == FrameHead:
		return r, nil
	case r.From == FrameHead && r.To == FrameMRI:
		return r.Inverse(), nil
	default:
		return Rigid{}, &LoadError{
			Source: rec.Name,
			Reason: "expected an mri↔head transform, got " + r.From.String() + "→" + r.To.String(),
			Err:    ErrFrameMismatch,
		}
	}
}

// Set bundles the transforms of one run so callers can map any frame to head
// and head to the output frame.
type Set struct {
	MRIHead Rigid  // mri → head
	DevHead *Rigid // device → head; nil when no MEG registration is available
}

// NewSet builds a Set; devHead may be nil and is copied otherwise.
func NewSet(mriHead Rigid, devHead *Rigid) Set {
	s := Set{MRIHead: mriHead}
	if devHead != nil {
		d := *devHead
		s.DevHead = &d
	}

	return s
}

// ToHead returns the transform from f into head coordinates.
//
// Errors:
//   - *LoadError when f is device and no (or a mis-tagged) device→head
//     transform is available.
func (s Set) ToHead(f Frame) (Rigid, error) {
	switch f {
	case FrameHead:
		return Identity(FrameHead, FrameHead), nil
	case FrameMRI:
		return s.MRIHead, nil
	case FrameDevice:
		if s.DevHead == nil {
			return Rigid{}, &LoadError{Source: "device→head", Reason: "no device→head transform available"}
		}
		if s.DevHead.From != FrameDevice || s.DevHead.To != FrameHead {
			return Rigid{}, &LoadError{
				Source: "device→head",
				Reason: "transform is tagged " + s.DevHead.From.String() + "→" + s.DevHead.To.String(),
				Err:    ErrFrameMismatch,
			}
		}

		return *s.DevHead, nil
	default:
		return Rigid{}, &LoadError{Source: f.String(), Reason: "unknown frame", Err: ErrFrameMismatch}
	}
}

// FromHead returns the transform from head coordinates into f.
func (s Set) FromHead(f Frame) (Rigid, error) {
	r, err := s.ToHead(f)
	if err != nil {
		return Rigid{}, err
	}

	return r.Inverse(), nil
}
