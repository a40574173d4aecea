// Package preflight provides readiness checks for the executables, paths,
// credentials, and services meetnotes depends on.
//
// These checks run in two contexts:
//   - The daemon runs RunAll at startup and logs every failure so a doomed
//     job is explained before the first recording arrives.
//   - The CLI "meetnotes doctor" command prints RunAll plus CheckSMTP.
//
// Checks never fail hard: each returns a Result with a human-readable detail.
package preflight
