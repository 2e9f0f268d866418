package csvload

import "context"

// SchemaProvisioner makes sure the namespaces that loaded tables land in
// exist before a folder is processed.
type SchemaProvisioner interface {
	// SchemaExists reports whether the schema is present.
	SchemaExists(ctx context.Context, name string) (bool, error)

	// EnsureSchema creates the schema if it is absent. Calling it repeatedly
	// with the same name has no additional effect. Failures wrap
	// ErrSchemaProvisioning.
	EnsureSchema(ctx context.Context, name string) error
}
