package connectivity

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dmitrijs2005/mealplanner/internal/common"
)

// Pinger is satisfied by *sql.DB and the postgres remote service.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// SQLPing probes by pinging a database handle.
func SQLPing(p Pinger) Prober {
	return ProberFunc(func(ctx context.Context) error {
		if err := p.PingContext(ctx); err != nil {
			return fmt.Errorf("%w: %w", common.ErrNetworkUnavailable, err)
		}
		return nil
	})
}

// GRPCHealth probes a standard gRPC health endpoint. service may be empty
// to ask for the overall server status.
func GRPCHealth(conn grpc.ClientConnInterface, service string) Prober {
	client := healthpb.NewHealthClient(conn)
	return ProberFunc(func(ctx context.Context) error {
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
		if err != nil {
			return fmt.Errorf("%w: %w", common.ErrNetworkUnavailable, err)
		}
		if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
			return fmt.Errorf("%w: health status %s", common.ErrNetworkUnavailable, resp.GetStatus())
		}
		return nil
	})
}

// DialHealth creates a client connection to target for GRPCHealth. The
// connection is lazy; the caller closes it.
func DialHealth(target string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("health client for %s: %w", target, err)
	}
	return conn, nil
}

// All is online only when every prober is.
func All(probers ...Prober) Prober {
	return ProberFunc(func(ctx context.Context) error {
		var errs []error
		for _, p := range probers {
			if err := p.Probe(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}
