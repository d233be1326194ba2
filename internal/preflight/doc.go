// Package preflight provides readiness checks for the provider and the
// filesystem paths ratingsync depends on.
//
// These checks run in two contexts:
//   - The CLI "run" command calls RunAll before a batch. If any check fails
//     the batch is not started.
//   - The CLI "status" command prints every result so the operator can see
//     what needs fixing.
package preflight
