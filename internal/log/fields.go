package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldOperation   = "operation"
	FieldError       = "error"
	FieldAccount     = "account"
	FieldContact     = "contact"
	FieldLoanID      = "loan_id"
	FieldTxnID       = "txn_id"
	FieldRole        = "role"
	FieldAmountCents = "amount_cents"
	FieldDate        = "date"
	FieldDBPath      = "db_path"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentCLI     = "cli"
	ComponentLedger  = "ledger"
	ComponentStorage = "storage"
	ComponentConfig  = "config"
)
