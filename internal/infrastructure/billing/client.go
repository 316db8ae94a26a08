package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/pm/patient-system/internal/core/ports"
	"github.com/pm/patient-system/internal/infrastructure/protoschema"
)

// Client calls billing.BillingService over gRPC.
type Client struct {
	conn grpc.ClientConnInterface
}

func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// Dial opens a plaintext connection to the billing service. The connection is
// lazy; no network traffic happens until the first call.
func Dial(addr string, log zerolog.Logger, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(loggingInterceptor(log)),
	}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("billing dial %s: %w", addr, err)
	}
	return conn, nil
}

func (c *Client) CreateBillingAccount(ctx context.Context, req ports.BillingAccountRequest) (*ports.BillingAccount, error) {
	in := protoschema.NewBillingRequest(req.PatientID, req.Name, req.Email)
	out := protoschema.EmptyBillingResponse()

	if err := c.conn.Invoke(ctx, protoschema.CreateBillingAccountMethod, in, out); err != nil {
		return nil, fmt.Errorf("create billing account: %w", err)
	}

	accountID, st := protoschema.BillingResponseFields(out)
	return &ports.BillingAccount{AccountID: accountID, Status: st}, nil
}

func loggingInterceptor(log zerolog.Logger) grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply any,
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		start := time.Now()
		err := invoker(ctx, method, req, reply, cc, opts...)
		log.Debug().
			Str("method", method).
			Str("code", status.Code(err).String()).
			Dur("duration", time.Since(start)).
			Msg("grpc call")
		return err
	}
}
