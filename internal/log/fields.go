package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldUserID     = "user_id"
	FieldPeriod     = "period"
	FieldVersion    = "version"
	FieldCollection = "collection"
	FieldOperation  = "operation"
	FieldError      = "error"
	FieldAddr       = "addr"
	FieldBackend    = "backend"
)

// Component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentSheets  = "sheets"
	ComponentCLI     = "cli"
)

// Operations
const (
	OpStartup  = "startup"
	OpShutdown = "shutdown"
	OpExport   = "export"
	OpMigrate  = "migrate"
)
