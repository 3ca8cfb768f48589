// Package config defines the format-agnostic model of report definitions
// (templates, stored queries and triggers), along with the Loader
// interface for reading definitions from various sources.
//
// The `config.Model` is the single source of truth for the definition
// stores. Concrete implementations of the Loader, such as for HCL, are
// provided in separate packages.
package config
