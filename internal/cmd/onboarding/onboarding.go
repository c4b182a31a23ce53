// Package onboarding parses onboarding command flags and launches the
// onboarding workflow runtime.
package onboarding

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	entrypoint "github.com/louisbranch/vendorflow/internal/platform/cmd"
	platformgrpc "github.com/louisbranch/vendorflow/internal/platform/grpc"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/app"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/render"
)

// Config holds onboarding command configuration.
type Config struct {
	Port          int           `env:"VENDORFLOW_ONBOARDING_PORT" envDefault:"8095"`
	DBPath        string        `env:"VENDORFLOW_ONBOARDING_DB_PATH" envDefault:"data/onboarding.db"`
	ScanSchedule  string        `env:"VENDORFLOW_ONBOARDING_SCAN_SCHEDULE" envDefault:"0 0 9 * * *"`
	ThresholdDays int           `env:"VENDORFLOW_ONBOARDING_UNRESPONSIVE_THRESHOLD_DAYS" envDefault:"3"`
	MinFollowUps  int           `env:"VENDORFLOW_ONBOARDING_UNRESPONSIVE_MIN_FOLLOW_UPS" envDefault:"2"`
	InvitationTTL time.Duration `env:"VENDORFLOW_ONBOARDING_INVITATION_TTL" envDefault:"168h"`
	CompanyName   string        `env:"VENDORFLOW_ONBOARDING_COMPANY_NAME"`
	SupportEmail  string        `env:"VENDORFLOW_ONBOARDING_SUPPORT_EMAIL"`
	PortalURL     string        `env:"VENDORFLOW_ONBOARDING_PORTAL_URL"`
	Language      string        `env:"VENDORFLOW_ONBOARDING_LANGUAGE" envDefault:"en"`

	AIEnabled     bool          `env:"VENDORFLOW_ONBOARDING_AI_ENABLED" envDefault:"false"`
	OpenAIAPIKey  string        `env:"VENDORFLOW_ONBOARDING_OPENAI_API_KEY"`
	OpenAIBaseURL string        `env:"VENDORFLOW_ONBOARDING_OPENAI_BASE_URL"`
	OpenAIModel   string        `env:"VENDORFLOW_ONBOARDING_OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	AITimeout     time.Duration `env:"VENDORFLOW_ONBOARDING_AI_TIMEOUT" envDefault:"20s"`

	KafkaBrokers []string `env:"VENDORFLOW_ONBOARDING_KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"VENDORFLOW_ONBOARDING_KAFKA_TOPIC" envDefault:"vendorflow.notifications"`

	DispatchTimeout time.Duration `env:"VENDORFLOW_ONBOARDING_DISPATCH_TIMEOUT" envDefault:"10s"`
	ProbeTimeout    time.Duration `env:"VENDORFLOW_ONBOARDING_PROBE_TIMEOUT" envDefault:"3s"`

	// ScanOnce runs the unresponsive scan a single time and exits.
	ScanOnce bool
	// Probe checks a running server's health and exits.
	Probe bool
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The onboarding health gRPC server port")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The onboarding SQLite database path")
	fs.StringVar(&cfg.ScanSchedule, "scan-schedule", cfg.ScanSchedule, "Cron schedule (seconds first) of the unresponsive-vendor scan")
	fs.IntVar(&cfg.ThresholdDays, "threshold-days", cfg.ThresholdDays, "Days before an unresolved follow-up counts as unanswered")
	fs.IntVar(&cfg.MinFollowUps, "min-follow-ups", cfg.MinFollowUps, "Unanswered follow-ups that mark a vendor unresponsive")
	fs.BoolVar(&cfg.AIEnabled, "ai", cfg.AIEnabled, "Generate follow-up text with the language model")
	fs.BoolVar(&cfg.ScanOnce, "scan-once", false, "Run the unresponsive-vendor scan once and exit")
	fs.BoolVar(&cfg.Probe, "probe", false, "Check the health of a running server on -port and exit")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the onboarding runtime, or performs the one-shot scan or probe
// selected by flags.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Probe {
		addr := fmt.Sprintf("127.0.0.1:%d", cfg.Port)
		return platformgrpc.Probe(ctx, addr, app.HealthService, cfg.ProbeTimeout, nil)
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceOnboarding, func(ctx context.Context) error {
		if cfg.ScanOnce {
			report, err := app.RunScanOnce(ctx, runtimeConfig(cfg))
			if err != nil {
				return err
			}
			log.Printf("unresponsive scan candidates=%d notified=%d failed=%d", report.Candidates, report.Notified, report.Failed)
			return nil
		}
		return app.Run(ctx, runtimeConfig(cfg))
	})
}

func runtimeConfig(cfg Config) app.RuntimeConfig {
	return app.RuntimeConfig{
		Port:          cfg.Port,
		DBPath:        cfg.DBPath,
		ScanSchedule:  cfg.ScanSchedule,
		ThresholdDays: cfg.ThresholdDays,
		MinFollowUps:  cfg.MinFollowUps,
		InvitationTTL: cfg.InvitationTTL,
		Company: render.Company{
			Name:         cfg.CompanyName,
			SupportEmail: cfg.SupportEmail,
			PortalURL:    cfg.PortalURL,
		},
		Language:        cfg.Language,
		AIEnabled:       cfg.AIEnabled,
		OpenAIAPIKey:    cfg.OpenAIAPIKey,
		OpenAIBaseURL:   cfg.OpenAIBaseURL,
		OpenAIModel:     cfg.OpenAIModel,
		AITimeout:       cfg.AITimeout,
		KafkaBrokers:    cfg.KafkaBrokers,
		KafkaTopic:      cfg.KafkaTopic,
		DispatchTimeout: cfg.DispatchTimeout,
	}
}
