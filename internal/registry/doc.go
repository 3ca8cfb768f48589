// Package registry provides the central "glue" for the module system.
//
// Modules register named backend factories for each collaborator role
// (definitions, queries, reference data, composition, delivery), for
// object stores and for content-change sources. At startup the application
// picks one backend per role by the name given in its configuration and
// builds it from the shared assets, so the core never depends on a
// concrete transport.
package registry
