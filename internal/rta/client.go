package rta

import (
	"context"
	"encoding/json"
	"io"

	"rtaportal/internal/models"
)

// Client is the gateway's view of the RTA core backend. Every method is a
// single REST round trip; none retry. Implementations must honor context
// cancellation and bound each call with the configured request timeout.
type Client interface {
	Login(ctx context.Context, portal models.Portal, identifier, password string) (token string, user models.User, err error)
	Register(ctx context.Context, portal models.Portal, payload RegistrationPayload) error
	RegisterAdmin(ctx context.Context, payload AdminRegistration) error
	Profile(ctx context.Context, portal models.Portal, token string) (models.User, error)

	RequestPasswordReset(ctx context.Context, portal models.Portal, email string) error
	ConfirmPasswordReset(ctx context.Context, portal models.Portal, resetToken, newPassword string) error
	VerifyOTP(ctx context.Context, portal models.Portal, identifier, code string) error

	ListResource(ctx context.Context, portal models.Portal, token, resource string) ([]json.RawMessage, error)
	CreateResource(ctx context.Context, portal models.Portal, token, resource string, body any) (json.RawMessage, error)
	UpdateResource(ctx context.Context, portal models.Portal, token, resource, id string, body any) (json.RawMessage, error)
	DeleteResource(ctx context.Context, portal models.Portal, token, resource, id string) error

	BankAccounts(ctx context.Context, token string) ([]BankAccount, error)
	Schemes(ctx context.Context, token string) ([]Scheme, error)
	Holdings(ctx context.Context, token string) ([]Holding, error)
	SubmitSIP(ctx context.Context, token string, req SIPRequest) (SIPReceipt, error)
	SubmitSwitch(ctx context.Context, token string, req SwitchRequest) (SwitchReceipt, error)

	Report(ctx context.Context, portal models.Portal, token, name string) (json.RawMessage, error)

	UploadDocument(ctx context.Context, token, filename, contentType string, file io.Reader, fields map[string]string) (json.RawMessage, error)
	DownloadDocument(ctx context.Context, token, id string) (DocumentMeta, io.ReadCloser, error)

	Probe(ctx context.Context) error
}
