package domain

const (
	RoleAdmin   = "admin"
	RoleStudent = "student"
)

// Order status. PENDING moves exactly once to SUCCESS or FAILED.
const (
	OrderPending = "PENDING"
	OrderSuccess = "SUCCESS"
	OrderFailed  = "FAILED"
)

// Gateway event journal status.
const (
	EventReceived  = "received"
	EventProcessed = "processed"
	EventRejected  = "rejected"
	EventIgnored   = "ignored"
)

const (
	NotifEnrollmentConfirmed = "ENROLLMENT_CONFIRMED"
	NotifPaymentFailed       = "PAYMENT_FAILED"
)

const (
	AuditRegister          = "register"
	AuditLogin             = "login"
	AuditPasswordChanged   = "password_changed"
	AuditOrderInitiated    = "order_initiated"
	AuditOrderFinalized    = "order_finalized"
	AuditSignatureRejected = "payment_signature_rejected"
	AuditPayloadMismatch   = "payment_payload_mismatch"
	AuditEnrollmentRepair  = "enrollment_repaired"
)

// OrderIDPrefix prefixes every gateway order identifier.
const OrderIDPrefix = "CMS_ORDER_"
