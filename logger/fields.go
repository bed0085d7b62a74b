package logger

import "go.uber.org/zap"

// Standard field names for consistent structured logging across lineage.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Components
	FieldComponent = "component"

	// Composition engine
	FieldType        = "type"
	FieldTypeID      = "type_id"
	FieldSuper       = "super"
	FieldMixin       = "mixin"
	FieldMixinID     = "mixin_id"
	FieldHook        = "hook"
	FieldComposition = "composition"
	FieldInstance    = "instance"
	FieldPhase       = "phase"

	// Blueprint and files
	FieldFile      = "file"
	FieldOperation = "operation"
	FieldCount     = "count"

	// Errors
	FieldError = "error"
)

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	reg := compose.NewRegistry(compose.WithLogger(logger.ComponentLogger("compose")))
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

// ChildLogger creates a child logger with additional context.
//
// Example:
//
//	instLogger := logger.ChildLogger(base, logger.FieldInstance, inst.ID())
func ChildLogger(parent *zap.SugaredLogger, keysAndValues ...interface{}) *zap.SugaredLogger {
	return parent.With(keysAndValues...)
}
