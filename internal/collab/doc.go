// Package collab declares the external collaborators consumed by the
// resolution pipeline: the definition store, the query executor, the
// reference-data service, the SVG composer and the delivery services.
//
// Implementations live under modules/. The core never talks to a transport
// directly; it receives these interfaces, usually wrapped by Guard so every
// call runs under a deadline and every failure is classified as a network
// error.
package collab
