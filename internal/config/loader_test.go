package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/skatepark/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigNew(t *testing.T) {
	convey.Convey("Given a new config", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LookaheadDepth, convey.ShouldEqual, 2)
			convey.So(cfg.MaxSessions, convey.ShouldEqual, 256)
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.BatchWorkers, convey.ShouldBeGreaterThan, 0)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading with defaults only", func() {
			cfg, err := config.Load()

			convey.Convey("Then the defaults come back", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.Seed, convey.ShouldEqual, 0)
				convey.So(cfg.ArchivePath, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When env vars are set", func() {
			setEnv("SKATEPARK_ADDR", ":8080")
			setEnv("SKATEPARK_SEED", "42")
			setEnv("SKATEPARK_LOOKAHEAD_DEPTH", "3")
			setEnv("SKATEPARK_TICK_PACING_MS", "25")
			setEnv("SKATEPARK_TIER_BUDGETS__PRO", "300")

			cfg, err := config.Load()

			convey.Convey("Then they override the defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.Seed, convey.ShouldEqual, 42)
				convey.So(cfg.LookaheadDepth, convey.ShouldEqual, 3)
				convey.So(cfg.TickPacingMS, convey.ShouldEqual, 25)
				convey.So(cfg.TierBudgets.Pro, convey.ShouldEqual, 300)
				convey.So(cfg.TierBudgets.Medium, convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When a YAML file is given", func() {
			path := filepath.Join(t.TempDir(), "skatepark.yaml")
			yamlContent := `
addr: ":9090"
log_format: json
archive_path: /tmp/sessions.db
batch_workers: 3
tier_budgets:
  beginner: 15
  medium: 80
`
			convey.So(os.WriteFile(path, []byte(yamlContent), 0o600), convey.ShouldBeNil)
			setEnv("SKATEPARK_CONFIG", path)
			setEnv("SKATEPARK_BATCH_WORKERS", "5")

			cfg, err := config.Load()

			convey.Convey("Then the file applies and env still wins", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.ArchivePath, convey.ShouldEqual, "/tmp/sessions.db")
				convey.So(cfg.TierBudgets.Beginner, convey.ShouldEqual, 15)
				convey.So(cfg.TierBudgets.Medium, convey.ShouldEqual, 80)
				convey.So(cfg.BatchWorkers, convey.ShouldEqual, 5)
			})
		})

		convey.Convey("When the file is missing", func() {
			setEnv("SKATEPARK_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))

			_, err := config.Load()

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a value is out of range", func() {
			setEnv("SKATEPARK_LOOKAHEAD_DEPTH", "9")

			_, err := config.Load()

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func TestConfigValidate(t *testing.T) {
	convey.Convey("Given configs with one bad field each", t, func() {
		cases := []struct {
			name   string
			mutate func(*config.Config)
		}{
			{"empty addr", func(c *config.Config) { c.Addr = "" }},
			{"negative budget", func(c *config.Config) { c.TierBudgets.Medium = -1 }},
			{"no workers", func(c *config.Config) { c.BatchWorkers = 0 }},
			{"no queue", func(c *config.Config) { c.BatchQueueSize = 0 }},
			{"no sessions", func(c *config.Config) { c.MaxSessions = 0 }},
			{"negative pacing", func(c *config.Config) { c.TickPacingMS = -5 }},
			{"unknown format", func(c *config.Config) { c.LogFormat = "xml" }},
			{"negative lookahead", func(c *config.Config) { c.LookaheadDepth = -1 }},
		}
		for _, tc := range cases {
			convey.Convey("Then "+tc.name+" is rejected", func() {
				cfg := config.New()
				tc.mutate(cfg)
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}

func setEnv(key, value string) { _ = os.Setenv(key, value) }

func clearConfigEnvVars() {
	for _, kv := range os.Environ() {
		if key, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(key, config.EnvPrefix) {
			_ = os.Unsetenv(key)
		}
	}
}
