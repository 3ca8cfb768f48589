// Package cli is responsible for parsing command-line arguments and
// translating them into a command for the application to run.
package cli
