package billing

import "context"

// Client provisions billing accounts for newly created patients on a remote
// billing service. Implementations must be safe for concurrent use.
// Idempotency of repeated provisioning for the same patient id is owned by the
// remote side; callers report failures rather than retrying inline.
type Client interface {
	CreateBillingAccount(ctx context.Context, patientID, name, email string) error
}
