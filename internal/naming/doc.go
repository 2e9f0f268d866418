// Package naming derives PostgreSQL identifiers from source file names and
// CSV header cells.
//
// Both derivations are pure functions: the same input always yields the
// same identifier, and applying a derivation to its own output changes
// nothing. Derived identifiers only contain lower-case ASCII letters,
// digits and underscores, so they never need quoting in SQL. They are still
// passed through pgx.Identifier.Sanitize when statements are built.
package naming
