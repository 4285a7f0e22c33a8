package server

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"github.com/alfredjeanlab/devjournal/internal/store/memory"
)

// flakyStore is a memory store whose Ping result can be switched.
type flakyStore struct {
	*memory.MemoryStore
	down atomic.Bool
}

func (s *flakyStore) Ping(context.Context) error {
	if s.down.Load() {
		return errors.New("unreachable")
	}
	return nil
}

func dialHealth(t *testing.T, srv *grpc.Server) healthpb.HealthClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return healthpb.NewHealthClient(conn)
}

func TestGRPCHealth_Serving(t *testing.T) {
	srv, _ := NewGRPCServer()
	client := dialHealth(t, srv)

	for _, service := range []string{"", HealthService} {
		resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
		if err != nil {
			t.Fatalf("Check(%q): %v", service, err)
		}
		if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
			t.Fatalf("Check(%q) = %v, want SERVING", service, resp.GetStatus())
		}
	}
}

func TestWatchStoreHealth(t *testing.T) {
	srv, hs := NewGRPCServer()
	client := dialHealth(t, srv)
	st := &flakyStore{MemoryStore: memory.New()}
	st.down.Store(true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		WatchStoreHealth(ctx, st, hs, 10*time.Millisecond)
	}()

	waitFor := func(want healthpb.HealthCheckResponse_ServingStatus) {
		t.Helper()
		deadline := time.Now().Add(2 * time.Second)
		for {
			resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: HealthService})
			if err == nil && resp.GetStatus() == want {
				return
			}
			if time.Now().After(deadline) {
				t.Fatalf("status never became %v (last: %v, %v)", want, resp.GetStatus(), err)
			}
			time.Sleep(5 * time.Millisecond)
		}
	}

	waitFor(healthpb.HealthCheckResponse_NOT_SERVING)
	st.down.Store(false)
	waitFor(healthpb.HealthCheckResponse_SERVING)

	cancel()
	<-done
	waitFor(healthpb.HealthCheckResponse_NOT_SERVING)
}
