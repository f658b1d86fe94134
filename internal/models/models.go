package models

import "time"

type Portal string

const (
	PortalInvestor    Portal = "investor"
	PortalAMC         Portal = "amc"
	PortalDistributor Portal = "distributor"
	PortalAdmin       Portal = "admin"
)

func (p Portal) Valid() bool {
	switch p {
	case PortalInvestor, PortalAMC, PortalDistributor, PortalAdmin:
		return true
	}
	return false
}

// User is the profile the RTA backend returns at login. The gateway never
// owns user records; it only mirrors what the backend said for the lifetime
// of a session.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	SubRole     string `json:"sub_role,omitempty"`
	PAN         string `json:"pan,omitempty"`
}

// Session is the gateway-local session. BackendSecret holds the backend
// bearer token encrypted with AES-GCM; the raw token never touches disk.
type Session struct {
	ID            string
	UserID        string
	Portal        Portal
	TokenHash     string
	BackendSecret string
	UserJSON      string
	IPHint        string
	UserAgentHash string
	ExpiresAt     time.Time
	IdleExpiresAt time.Time
	CreatedAt     time.Time
	LastSeenAt    time.Time
	RevokedAt     *time.Time
}

type WizardStep int

const (
	StepIdentity WizardStep = 1
	StepContact  WizardStep = 2
	StepSecurity WizardStep = 3
)

// RegistrationDraft accumulates wizard fields across the three steps.
// Fields a step owns must pass that step's validation before the draft
// advances past it; state and city are cleared whenever their parent
// geographic selection changes.
type RegistrationDraft struct {
	ID     string     `json:"id"`
	Portal Portal     `json:"portal"`
	Step   WizardStep `json:"step"`

	FullName    string `json:"full_name"`
	PAN         string `json:"pan_number"`
	DateOfBirth string `json:"date_of_birth"`
	Gender      string `json:"gender"`

	Email   string `json:"email"`
	Mobile  string `json:"mobile_number"`
	Country string `json:"country"`
	State   string `json:"state"`
	City    string `json:"city"`
	Address string `json:"address_line1"`
	Pincode string `json:"pincode"`

	Password        string `json:"-"`
	ConfirmPassword string `json:"-"`
	TermsAccepted   bool   `json:"terms_accepted"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AuditEntry struct {
	ID           string    `json:"id"`
	ActorUserID  string    `json:"actor_user_id"`
	ActorEmail   string    `json:"actor_email,omitempty"`
	Action       string    `json:"action"`
	Target       string    `json:"target"`
	MetadataJSON string    `json:"metadata_json"`
	CreatedAt    time.Time `json:"created_at"`
}

type SessionQuery struct {
	UserEmail     string
	IncludeClosed bool
	Limit         int
	Offset        int
}

type AuditQuery struct {
	Action string
	Limit  int
	Offset int
}
