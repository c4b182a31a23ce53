// Package app assembles the onboarding workflow runtime: storage, services,
// the unresponsive-vendor schedule and the health endpoint.
package app

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	platformgrpc "github.com/louisbranch/vendorflow/internal/platform/grpc"
	"github.com/louisbranch/vendorflow/internal/platform/id"
	"github.com/louisbranch/vendorflow/internal/platform/timeouts"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/activity"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/dispatch"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/followup"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/generator/openai"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/monitor"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/notify"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/notify/kafka"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/render"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/storage/sqlite"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/validation"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/workflow"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
)

// RuntimeConfig controls onboarding startup and its optional integrations.
type RuntimeConfig struct {
	Port          int
	DBPath        string
	ScanSchedule  string
	ThresholdDays int
	MinFollowUps  int
	InvitationTTL time.Duration
	Company       render.Company
	Language      string

	AIEnabled     bool
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	AITimeout     time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	DispatchTimeout time.Duration
}

const (
	defaultOnboardingPort = 8095
	defaultOnboardingDB   = "data/onboarding.db"

	// HealthService is the gRPC health name reported while the runtime serves.
	HealthService = "onboarding.runtime"
)

// Runtime holds the wired onboarding services.
type Runtime struct {
	Workflow   *workflow.Service
	FollowUps  *followup.Engine
	Inbox      *notify.Inbox
	Scanner    *monitor.Scanner
	Dispatcher *dispatch.Dispatcher

	store     *sqlite.Store
	mirror    *notify.Mirror
	publisher *kafka.Publisher
}

// New opens the store, seeds default templates and wires every service.
func New(ctx context.Context, cfg RuntimeConfig) (*Runtime, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = defaultOnboardingDB
	}
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create onboarding storage dir: %w", err)
		}
	}

	var generator *openai.Generator
	if cfg.AIEnabled {
		var err error
		generator, err = openai.New(openai.Config{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.AITimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("configure message generator: %w", err)
		}
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open onboarding sqlite store: %w", err)
	}
	rt := &Runtime{store: store}

	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := kafka.Dial(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("configure notification mirror: %w", err)
		}
		rt.publisher = publisher
		rt.mirror = notify.NewMirror(publisher, timeouts.Publish)
	}

	clock := time.Now
	newID := id.NewID
	emitter := notify.NewEmitter(notify.NewLocalizer(cfg.Language), clock, newID)

	rt.Dispatcher = dispatch.NewDispatcher(store, cfg.Company, clock, newID)
	rt.Dispatcher.SetTimeout(cfg.DispatchTimeout)

	rt.FollowUps = followup.NewEngine(store, clock, newID)
	rt.FollowUps.SetSender(rt.Dispatcher)
	rt.FollowUps.SetCompany(cfg.Company)
	if generator != nil {
		rt.FollowUps.SetGenerator(generator)
	}

	seeded, err := rt.FollowUps.SeedDefaultTemplates(ctx)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("seed follow-up templates: %w", err)
	}
	if seeded > 0 {
		log.Printf("seeded %d default follow-up templates", seeded)
	}

	rt.Workflow = workflow.NewService(store, workflow.Dependencies{
		Evaluator: validation.NewEvaluator(validation.DefaultRules(), clock, newID),
		FollowUps: rt.FollowUps,
		Emitter:   emitter,
		Activity:  activity.NewRecorder(clock, newID),
		Mirror:    rt.mirror,
	}, clock, newID)
	rt.Workflow.SetInvitationTTL(cfg.InvitationTTL)

	rt.Inbox = notify.NewInbox(store, clock)
	rt.Scanner = monitor.NewScanner(store, emitter, clock)
	rt.Scanner.SetThresholds(cfg.ThresholdDays, cfg.MinFollowUps)
	rt.Scanner.SetMirror(rt.mirror)
	return rt, nil
}

// Close waits for in-flight dispatches and mirror writes, then releases the
// store and the broker connection.
func (rt *Runtime) Close() {
	if rt == nil {
		return
	}
	rt.Dispatcher.Wait()
	rt.mirror.Wait()
	if rt.publisher != nil {
		if err := rt.publisher.Close(); err != nil {
			log.Printf("close notification publisher: %v", err)
		}
	}
	if rt.store != nil {
		if err := rt.store.Close(); err != nil {
			log.Printf("close onboarding sqlite store: %v", err)
		}
	}
}

// Run serves gRPC health and runs the unresponsive-vendor schedule until ctx
// is cancelled.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Port <= 0 {
		cfg.Port = defaultOnboardingPort
	}
	rt, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	scheduler, err := monitor.NewScheduler(cfg.ScanSchedule, rt.Scanner)
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return fmt.Errorf("listen on onboarding port %d: %w", cfg.Port, err)
	}
	defer listener.Close()

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := platformgrpc.RegisterHealth(grpcServer, HealthService)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- grpcServer.Serve(listener)
	}()
	defer func() {
		healthServer.Shutdown()
		grpcServer.GracefulStop()
		<-serveErr
	}()

	log.Printf("onboarding server listening at %v", listener.Addr())
	log.Printf("unresponsive scan scheduled, next run at %s", scheduler.Next(time.Now()).Format(time.RFC3339))
	return scheduler.Run(ctx)
}

// RunScanOnce runs the unresponsive-vendor scan a single time, the same way
// the schedule does.
func RunScanOnce(ctx context.Context, cfg RuntimeConfig) (monitor.Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := New(ctx, cfg)
	if err != nil {
		return monitor.Report{}, err
	}
	defer rt.Close()
	return rt.Scanner.RunScan(ctx)
}
