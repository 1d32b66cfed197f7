package domain

const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// Order lifecycle. Success and Failed are terminal.
const (
	StatusPending    = "Pending"
	StatusProcessing = "Processing"
	StatusSuccess    = "Success"
	StatusFailed     = "Failed"
)

// Audit action codes consumed by the admin ledger.
const (
	ActionOrderCreated           = "ORDER_CREATED"
	ActionOrderDeleted           = "ORDER_DELETED"
	ActionVoucherApplied         = "VOUCHER_APPLIED"
	ActionPaymentReceivedWebhook = "PAYMENT_RECEIVED_WEBHOOK"
	ActionPaymentReceivedPoller  = "PAYMENT_RECEIVED_POLLER"
	ActionTransactionSuccess     = "TRANSACTION_SUCCESS"
	ActionTransactionFailed      = "TRANSACTION_FAILED"
	ActionLogsPurged             = "LOGS_PURGED"
	ActionAdminLogin             = "ADMIN_LOGIN"
)

// IsTerminal reports whether a status admits no further transitions.
func IsTerminal(status string) bool {
	return status == StatusSuccess || status == StatusFailed
}
