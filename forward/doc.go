// SPDX-License-Identifier: MIT

// Package forward runs the forward computation end to end and assembles the
// gain matrix with its metadata.
//
// Run is the single entry point: it takes a resolved config.JobSpec and the
// already-loaded Inputs, and returns an immutable *Result. Loading and
// persistence stay outside (see the loader and store packages); an optional
// Writer receives the result once assembly succeeds.
//
// Errors are wrapped with the failing stage ("Transform: …", "Filter: …",
// "HeadModel: …", "LeadField: …") and keep their package sentinels, so
// callers match them with errors.Is:
//
//	res, err := forward.Run(ctx, spec, in, forward.WithLogger(log))
//	if errors.Is(err, sourcespace.ErrUnknownLabel) { … }
package forward
