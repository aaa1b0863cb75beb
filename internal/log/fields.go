package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"

	FieldFamilyUUID  = "family_uuid"
	FieldUserUUID    = "user_uuid"
	FieldAmountCents = "amount_cents"
	FieldAlertType   = "alert_type"
	FieldAlertMonth  = "alert_month"
	FieldPercentage  = "percentage"
)

// Components defines standard component names
const (
	ComponentApp          = "app"
	ComponentHTTP         = "http"
	ComponentStorage      = "storage"
	ComponentAMQP         = "amqp"
	ComponentWorker       = "worker"
	ComponentBudgetAlerts = "budget_alerts"
)
