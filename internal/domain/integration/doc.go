// Package integration defines the ports and data shapes for talking to the
// external point-of-sale provider. The adapter implementations live in
// internal/infrastructure; this package only fixes the contract the import
// pipeline depends on.
package integration
