package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"patientapi/internal/config"
)

const createBillingAccountMethod = "/billing.BillingService/CreateBillingAccount"

// jsonCodec exchanges JSON payloads with the billing service over gRPC so no
// generated protobuf stubs need to be vendored here. The billing service
// negotiates the "json" content subtype.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return "json" }

type createBillingAccountRequest struct {
	PatientID string `json:"patient_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
}

type createBillingAccountResponse struct {
	AccountID string `json:"account_id"`
	Status    string `json:"status"`
}

// GRPCClient is a billing Client backed by a gRPC connection to the billing
// service.
type GRPCClient struct {
	conn    *grpc.ClientConn
	timeout time.Duration
}

var _ Client = (*GRPCClient)(nil)

// NewGRPCClient prepares a connection to the configured billing service
// address. The connection is lazy, so dial problems surface on the first call.
func NewGRPCClient(c config.BillingConfig) (*GRPCClient, error) {
	if c.Addr == "" {
		return nil, fmt.Errorf("billing address is required")
	}
	conn, err := grpc.NewClient(c.Addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	)
	if err != nil {
		return nil, fmt.Errorf("billing dial: %w", err)
	}

	timeout := time.Duration(c.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &GRPCClient{conn: conn, timeout: timeout}, nil
}

// CreateBillingAccount invokes the remote provisioning RPC with a bounded
// deadline. Deadline expiry is reported like any other provisioning failure.
func (c *GRPCClient) CreateBillingAccount(ctx context.Context, patientID, name, email string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := createBillingAccountRequest{
		PatientID: patientID,
		Name:      name,
		Email:     email,
	}
	var resp createBillingAccountResponse
	if err := c.conn.Invoke(ctx, createBillingAccountMethod, &req, &resp, grpc.ForceCodec(jsonCodec{})); err != nil {
		return fmt.Errorf("create billing account: %w", err)
	}
	return nil
}

// Close releases the underlying connection.
func (c *GRPCClient) Close() error {
	return c.conn.Close()
}
