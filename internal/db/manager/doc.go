// Package manager provisions PostgreSQL schemas for the folder-to-schema
// mapping.
//
// Identifiers are quoted with pgx.Identifier.Sanitize(), so schema names with
// spaces, quotes or upper-case letters are created exactly as written.
//
//	provisioner := manager.New(conn, logger)
//	if err := provisioner.EnsureSchema(ctx, "reports"); err != nil {
//	    // errors.Is(err, csvload.ErrSchemaProvisioning)
//	}
package manager
