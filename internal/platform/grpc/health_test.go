package grpc

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	gogrpc "google.golang.org/grpc"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

func startServer(t *testing.T, services ...string) (string, func(string, grpc_health_v1.HealthCheckResponse_ServingStatus)) {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := gogrpc.NewServer()
	healthServer := RegisterHealth(srv, services...)
	go func() {
		_ = srv.Serve(listener)
	}()
	t.Cleanup(srv.Stop)
	return listener.Addr().String(), healthServer.SetServingStatus
}

func TestProbeServing(t *testing.T) {
	t.Parallel()
	addr, _ := startServer(t, "onboarding.runtime")

	if err := Probe(context.Background(), addr, "onboarding.runtime", 2*time.Second, nil); err != nil {
		t.Fatalf("probe: %v", err)
	}
	if err := Probe(context.Background(), addr, "", 2*time.Second, nil); err != nil {
		t.Fatalf("probe server: %v", err)
	}
}

func TestProbeWaitsForTransition(t *testing.T) {
	t.Parallel()
	addr, setStatus := startServer(t, "onboarding.runtime")
	setStatus("onboarding.runtime", grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	go func() {
		time.Sleep(200 * time.Millisecond)
		setStatus("onboarding.runtime", grpc_health_v1.HealthCheckResponse_SERVING)
	}()

	var logs []string
	logf := func(format string, _ ...any) { logs = append(logs, format) }
	if err := Probe(context.Background(), addr, "onboarding.runtime", 3*time.Second, logf); err != nil {
		t.Fatalf("probe: %v", err)
	}
}

func TestProbeReportsHealthStage(t *testing.T) {
	t.Parallel()
	addr, _ := startServer(t)

	err := Probe(context.Background(), addr, "unknown.service", 300*time.Millisecond, nil)
	var probeErr *ProbeError
	if !errors.As(err, &probeErr) {
		t.Fatalf("err = %T, want ProbeError", err)
	}
	if probeErr.Stage != ProbeStageHealth {
		t.Fatalf("stage = %q, want %q", probeErr.Stage, ProbeStageHealth)
	}
	if !strings.Contains(probeErr.Error(), "gRPC health") {
		t.Fatalf("message = %q", probeErr.Error())
	}
}

func TestWaitForHealthRequiresConnection(t *testing.T) {
	t.Parallel()
	if err := WaitForHealth(context.Background(), nil, "", nil); err == nil {
		t.Fatal("expected error for nil connection")
	}
}

func TestProbeErrorUnwrap(t *testing.T) {
	t.Parallel()
	cause := errors.New("boom")
	err := &ProbeError{Stage: ProbeStageConnect, Err: cause}
	if !errors.Is(err, cause) {
		t.Fatal("expected ProbeError to unwrap its cause")
	}
	var nilErr *ProbeError
	if nilErr.Error() != "gRPC probe error" {
		t.Fatalf("nil error message = %q", nilErr.Error())
	}
}
