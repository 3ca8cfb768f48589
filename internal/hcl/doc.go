// Package hcl provides the concrete HCL implementation of the config.Loader
// interface. It is responsible for file discovery, HCL parsing, the
// functions available inside definition files, and the translation of
// decoded blocks into the format-agnostic model.
package hcl
