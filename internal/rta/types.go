package rta

import "encoding/json"

// Resource names the gateway proxies verbatim. Each maps to a backend
// collection endpoint under the caller's portal prefix.
const (
	ResourceBankAccounts  = "bank-accounts"
	ResourceMandates      = "mandates"
	ResourceComplaints    = "complaints"
	ResourceDocuments     = "documents"
	ResourceNotifications = "notifications"
	ResourceAgents        = "agents"
)

type BankAccount struct {
	ID            string `json:"id"`
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	IFSC          string `json:"ifsc_code"`
	AccountType   string `json:"account_type"`
	IsPrimary     bool   `json:"is_primary"`
	MandateStatus string `json:"mandate_status"`
}

type Scheme struct {
	ID       string  `json:"id"`
	Name     string  `json:"scheme_name"`
	Category string  `json:"category"`
	NAV      float64 `json:"nav"`
}

// Holding is one scheme position inside a folio, as the backend values it.
type Holding struct {
	FolioNumber string  `json:"folio_number"`
	SchemeID    string  `json:"scheme_id"`
	SchemeName  string  `json:"scheme_name"`
	Units       float64 `json:"units"`
	Value       float64 `json:"current_value"`
}

type SIPRequest struct {
	SchemeID      string  `json:"scheme_id"`
	Amount        float64 `json:"amount"`
	Frequency     string  `json:"frequency"`
	StartDate     string  `json:"start_date"`
	EndDate       *string `json:"end_date"`
	Installments  *int    `json:"installments"`
	BankAccountID string  `json:"bank_account_id"`
	MandateType   string  `json:"mandate"`
}

type SIPReceipt struct {
	RegistrationID string `json:"reg_id"`
	Status         string `json:"status"`
}

type SwitchRequest struct {
	SourceSchemeID string  `json:"source_scheme_id"`
	TargetSchemeID string  `json:"target_scheme_id"`
	FolioNumber    string  `json:"folio_number"`
	Mode           string  `json:"mode"`
	Amount         float64 `json:"amount,omitempty"`
	Units          float64 `json:"units,omitempty"`
}

type SwitchReceipt struct {
	TransactionID string `json:"txn_id"`
	Status        string `json:"status"`
}

type DocumentMeta struct {
	Filename    string
	ContentType string
	Size        int64
}

// Report rows the dashboards consume. The backend pre-aggregates; these are
// display-level shapes only.
type AllocationRow struct {
	SchemeName string  `json:"scheme_name"`
	Category   string  `json:"category"`
	Value      float64 `json:"current_value"`
}

type CapitalGainRow struct {
	SchemeName string  `json:"scheme_name"`
	Units      float64 `json:"units"`
	Gain       float64 `json:"gain"`
	Term       string  `json:"term"`
}

type UnclaimedRow struct {
	FolioNumber string  `json:"folio_number"`
	Kind        string  `json:"kind"`
	Amount      float64 `json:"amount"`
	AgingDays   int     `json:"aging_days"`
}

type ReconciliationRow struct {
	RecordID string  `json:"record_id"`
	Source   string  `json:"source"`
	Status   string  `json:"status"`
	Amount   float64 `json:"amount"`
}

// RegistrationPayload is the flattened, validated wizard draft the backend
// registration endpoint accepts.
type RegistrationPayload struct {
	FullName    string `json:"full_name"`
	PAN         string `json:"pan_number"`
	DateOfBirth string `json:"date_of_birth"`
	Gender      string `json:"gender"`
	Email       string `json:"email"`
	Mobile      string `json:"mobile_number"`
	Country     string `json:"country"`
	State       string `json:"state"`
	City        string `json:"city"`
	Address     string `json:"address_line1"`
	Pincode     string `json:"pincode"`
	Password    string `json:"password"`
}

// AdminRegistration is the single-step official-account signup form. The
// backend verifies the corporate secret key; the gateway only forwards it.
type AdminRegistration struct {
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	EmployeeID string `json:"employee_id"`
	SubRole    string `json:"sub_role"`
	SecretKey  string `json:"secret_key"`
	Password   string `json:"password"`
}

// Collection is a normalized list response: whatever envelope the backend
// used, handlers see plain items.
type Collection struct {
	Items []json.RawMessage `json:"items"`
}
