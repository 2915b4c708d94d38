// Package preflight provides readiness checks for the filesystem paths a
// post-processing run depends on.
//
// These checks run in two contexts:
//   - The pipeline calls the individual checks before opening the input so a
//     doomed run fails before any parsing work.
//   - The CLI "minepost config validate" command uses RunAll to display a
//     readiness table.
package preflight
