package log

// Common field names for structured logging.
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldExpenseID   = "expense_id"
	FieldCategoryID  = "category_id"
	FieldAccountID   = "account_id"
	FieldKind        = "kind"
	FieldAmountMinor = "amount_minor"
	FieldPeriod      = "period_month"
	FieldDeviceID    = "device_id"
)

// Standard component names.
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentExpense  = "expense"
	ComponentBalance  = "balance"
	ComponentBudget   = "budget"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentCache    = "cache"
	ComponentRecurrer = "recurring"
)
