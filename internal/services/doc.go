// Package services wires the pieces of a load run together.
//
// Runner walks the folder mapping: it resolves each folder under the base
// path, provisions the folder's schema, applies the collision policy and
// hands every CSV file to the loader, one file at a time. LoadService owns a
// whole run: it connects, builds the runner over the live session, collects
// statistics and closes the connection on every exit path.
package services
