// Package types holds the shared vocabulary of hivefs: cluster
// identities, replica roles, mount statistics, runtime counter
// snapshots, file handles and the error taxonomy every layer reports
// against.
package types
