package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserID     = "user_id"
	FieldGroupID    = "group_id"
	FieldDebtID     = "shared_debt_id"
	FieldAmount     = "amount"
	FieldError      = "error"
	FieldOperation  = "operation"
)

// Standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentLedger    = "ledger"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentExport    = "export"
	ComponentRecurring = "recurring"
	ComponentRateLimit = "rate_limit"
	ComponentTrace     = "trace"
)
