// SPDX-License-Identifier: MIT

// Package headmodel solves the volume-conductor problem once per run and
// hands back a read-only State that turns a dipole position into sensor
// responses.
//
// Two variants exist:
//
//   - BEM: nested closed surfaces (scalp → inner skull) with piecewise
//     constant conductivities. Used for MEG and EEG whenever surfaces are
//     supplied.
//   - Sphere: concentric shells about R0. MEG uses the Sarvas formula; EEG
//     uses the multilayer Legendre series or, when requested, a three-dipole
//     equivalent-source approximation.
//
// All inputs must be in head coordinates. State.Dipole reports the response
// to unit dipoles along the head axes; orientation handling is left to the
// caller.
//
// Errors: ErrIllConditionedGeometry, ErrUnknownModel, ErrSourceOutside,
// ErrNoModality. Nothing here logs.
package headmodel
