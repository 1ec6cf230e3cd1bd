package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldPeriod      = "period"
	FieldKey         = "key"
	FieldToken       = "request_token"
	FieldWorkerID    = "worker_id"
	FieldTxnID       = "transaction_id"
	FieldTxnCount    = "transaction_count"
	FieldAmount      = "amount"
	FieldSource      = "source"
	FieldWatermark   = "watermark"
	FieldPage        = "page"
	FieldCacheHit    = "cache_hit"
	FieldStale       = "stale"
	FieldSheetsRange = "sheets_range"
)

// Components defines standard component names
const (
	ComponentApp         = "app"
	ComponentGateway     = "gateway"
	ComponentCoordinator = "coordinator"
	ComponentCache       = "cache"
	ComponentCacheStore  = "cachestore"
	ComponentPoller      = "poller"
	ComponentNotify      = "notify"
	ComponentPayments    = "payments"
	ComponentExport      = "export"
)

// Operations defines standard operation names
const (
	OpFetch    = "fetch"
	OpActivate = "activate"
	OpRefresh  = "refresh"
	OpPoll     = "poll"
	OpNotify   = "notify"
	OpMarkPaid = "mark_paid"
	OpRollback = "rollback"
	OpExport   = "export"
	OpMigrate  = "migrate"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)
