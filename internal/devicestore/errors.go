package devicestore

import "codeberg.org/mutker/serialstat/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig = errors.ErrInvalidConfig
	ErrInvalidDBPath = errors.ErrorCode("devicestore_invalid_db_path")
	ErrInvalidDevice = errors.ErrorCode("devicestore_invalid_device")

	// Schema Errors
	ErrSchemaInitFailed       = errors.ErrorCode("devicestore_schema_init_failed")
	ErrSchemaValidationFailed = errors.ErrorCode("devicestore_schema_validation_failed")
	ErrSchemaMigrationFailed  = errors.ErrorCode("devicestore_schema_migration_failed")

	// Storage Errors
	ErrStorageAccess = errors.ErrorCode("devicestore_storage_access_failed")
	ErrStorageInit   = errors.ErrInitFailed
	ErrStorageClose  = errors.ErrShutdownFailed
)
