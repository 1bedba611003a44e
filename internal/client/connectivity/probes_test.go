package connectivity

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"github.com/dmitrijs2005/mealplanner/internal/common"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestSQLPing(t *testing.T) {
	ok := SQLPing(pingerFunc(func(context.Context) error { return nil }))
	require.NoError(t, ok.Probe(context.Background()))

	bad := SQLPing(pingerFunc(func(context.Context) error { return errors.New("refused") }))
	require.ErrorIs(t, bad.Probe(context.Background()), common.ErrNetworkUnavailable)
}

func TestAll(t *testing.T) {
	up := ProberFunc(func(context.Context) error { return nil })
	down := ProberFunc(func(context.Context) error { return common.ErrNetworkUnavailable })

	require.NoError(t, All(up, up).Probe(context.Background()))
	require.ErrorIs(t, All(up, down).Probe(context.Background()), common.ErrNetworkUnavailable)
}

func startHealthServer(t *testing.T) (*health.Server, *grpc.ClientConn) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := DialHealth("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return hs, conn
}

func TestGRPCHealth_FollowsServingStatus(t *testing.T) {
	hs, conn := startHealthServer(t)
	p := GRPCHealth(conn, "mealplanner")
	ctx := context.Background()

	hs.SetServingStatus("mealplanner", healthpb.HealthCheckResponse_SERVING)
	require.NoError(t, p.Probe(ctx))

	hs.SetServingStatus("mealplanner", healthpb.HealthCheckResponse_NOT_SERVING)
	require.ErrorIs(t, p.Probe(ctx), common.ErrNetworkUnavailable)
}

func TestGRPCHealth_UnknownServiceIsOffline(t *testing.T) {
	_, conn := startHealthServer(t)
	err := GRPCHealth(conn, "missing").Probe(context.Background())
	require.ErrorIs(t, err, common.ErrNetworkUnavailable)
}
