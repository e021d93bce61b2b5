package health

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

func TestTrackerNotifiesOnChange(t *testing.T) {
	t.Parallel()
	tr := NewTracker()
	require.False(t, tr.Ready())

	var seen []bool
	tr.OnChange(func(ready bool) { seen = append(seen, ready) })
	before := tr.Since()

	time.Sleep(time.Millisecond)
	tr.MarkReady()
	tr.MarkReady()
	tr.MarkNotReady()

	require.Equal(t, []bool{false, true, false}, seen)
	require.True(t, tr.Since().After(before))
}

func startHealth(t *testing.T, tr *Tracker) (healthpb.HealthClient, *Server) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := NewServer(tr)
	go func() { _ = srv.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conn.Close()
		srv.Stop()
	})
	return healthpb.NewHealthClient(conn), srv
}

func check(t *testing.T, client healthpb.HealthClient, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestServerFollowsTracker(t *testing.T) {
	t.Parallel()
	tr := NewTracker()
	client, _ := startHealth(t, tr)

	require.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, client, ""))
	require.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, client, ServiceName))

	tr.MarkReady()
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, client, ""))
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, client, ServiceName))

	tr.MarkNotReady()
	require.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, client, ServiceName))
}
