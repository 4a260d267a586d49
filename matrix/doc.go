// Package matrix provides the row-major dense storage used for gain and
// gradient matrices.
//
// The matrix package provides:
//
//   - Dense, a row-major float64 buffer with bounds-checked At/Set and an
//     optional finite-only numeric policy (NaN/±Inf rejected on Set and
//     NewDenseFrom).
//   - Central validators (ValidateNotNil, ValidateFinite) returning plain
//     sentinels for uniform wrapping at call sites.
//   - Transpose, which turns the per-source column buffer into the
//     sensor-major gain.
//
// Dense is what the forward pipeline hands to writers: rows are sensors
// (MEG before EEG), columns are source orientations.
package matrix
