package config

import (
	"os"
	"time"

	"github.com/go-yaml/yaml"
	"github.com/pkg/errors"

	"github.com/totegamma/concrnt-loadtest"
	"github.com/totegamma/concrnt-loadtest/internal/loadprofile"
	"github.com/totegamma/concrnt-loadtest/internal/metrics"
	"github.com/totegamma/concrnt-loadtest/internal/scenario"
)

type Config struct {
	Target   Target   `yaml:"target"`
	Load     Profile  `yaml:"load"`
	Scenario Scenario `yaml:"scenario"`
	Server   Server   `yaml:"server"`
	Stub     Stub     `yaml:"stub"`
}

type Target struct {
	Host       string `yaml:"host"` // host:port, no scheme
	Secure     bool   `yaml:"secure"`
	FQDN       string `yaml:"fqdn"`
	TimelineID string `yaml:"timelineID"`
	Timeout    string `yaml:"timeout"`
}

// Profile is the load section: the actor ramp and the pass/fail thresholds.
type Profile struct {
	MaxActors  int      `yaml:"maxActors"`
	Stages     []Stage  `yaml:"stages"`
	Thresholds []string `yaml:"thresholds"`
}

type Stage struct {
	Duration string `yaml:"duration"`
	Target   int    `yaml:"target"`
}

type Scenario struct {
	Iterations int    `yaml:"iterations"`
	PaceBase   string `yaml:"paceBase"`
	PaceJitter string `yaml:"paceJitter"`
	Seed       int64  `yaml:"seed"`
}

type Server struct {
	MetricsAddr   string `yaml:"metricsAddr"`
	LogLevel      string `yaml:"logLevel"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
}

type Stub struct {
	Addr       string `yaml:"addr"`
	FQDN       string `yaml:"fqdn"`
	TimelineID string `yaml:"timelineID"`
	SeedPosts  int    `yaml:"seedPosts"`
	Delay      string `yaml:"delay"`
}

func Default() Config {
	return Config{
		Target: Target{
			Host:    "localhost:8080",
			FQDN:    "example.com",
			Timeout: "60s",
		},
		Load: Profile{
			MaxActors: 100,
			Stages: []Stage{
				{Duration: "10s", Target: 100},
				{Duration: "3m", Target: 100},
				{Duration: "10s", Target: 0},
			},
			Thresholds: []string{"p(95)<300"},
		},
		Scenario: Scenario{
			Iterations: scenario.DefaultIterations,
			PaceBase:   "3s",
			PaceJitter: "10s",
		},
		Server: Server{
			LogLevel: "info",
		},
		Stub: Stub{
			Addr:       ":8080",
			FQDN:       "example.com",
			TimelineID: "loadtest@example.com",
			SeedPosts:  16,
		},
	}
}

// Load reads path over the defaults. Keys absent from the file keep their default value.
func Load(path string) (Config, error) {
	config := Default()

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to decode config")
	}

	return config, nil
}

func (c Config) Validate() error {
	if c.Target.Host == "" {
		return errors.New("target.host is required")
	}
	if c.Target.TimelineID == "" {
		return errors.New("target.timelineID is required")
	}
	if key, _ := concrnt.SplitTimelineID(c.Target.TimelineID); key == "" {
		return errors.New("target.timelineID has an empty id")
	}
	if _, err := c.ProfileConfig(); err != nil {
		return err
	}
	if _, err := c.ScenarioSettings(); err != nil {
		return err
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}
	return nil
}

// ProfileConfig converts the load section into the controller's configuration.
func (c Config) ProfileConfig() (loadprofile.Config, error) {
	if c.Load.MaxActors <= 0 {
		return loadprofile.Config{}, errors.New("load.maxActors must be positive")
	}
	if len(c.Load.Stages) == 0 {
		return loadprofile.Config{}, errors.New("load.stages must not be empty")
	}

	stages := make([]loadprofile.Stage, 0, len(c.Load.Stages))
	for i, s := range c.Load.Stages {
		d, err := time.ParseDuration(s.Duration)
		if err != nil {
			return loadprofile.Config{}, errors.Wrapf(err, "load.stages[%d].duration", i)
		}
		if s.Target < 0 {
			return loadprofile.Config{}, errors.Errorf("load.stages[%d].target must not be negative", i)
		}
		stages = append(stages, loadprofile.Stage{Duration: d, Target: s.Target})
	}

	thresholds := make([]metrics.Threshold, 0, len(c.Load.Thresholds))
	for _, expr := range c.Load.Thresholds {
		t, err := metrics.ParseThreshold(expr)
		if err != nil {
			return loadprofile.Config{}, errors.Wrap(err, "load.thresholds")
		}
		thresholds = append(thresholds, t)
	}

	return loadprofile.Config{
		Stages:     stages,
		MaxActors:  c.Load.MaxActors,
		Thresholds: thresholds,
	}, nil
}

func (c Config) ScenarioSettings() (scenario.Settings, error) {
	settings := scenario.DefaultSettings()
	settings.Domain = c.Target.FQDN
	settings.TimelineID = c.Target.TimelineID
	settings.Seed = c.Scenario.Seed
	if c.Scenario.Iterations > 0 {
		settings.Iterations = c.Scenario.Iterations
	}

	var err error
	if c.Scenario.PaceBase != "" {
		if settings.PaceBase, err = time.ParseDuration(c.Scenario.PaceBase); err != nil {
			return scenario.Settings{}, errors.Wrap(err, "scenario.paceBase")
		}
	}
	if c.Scenario.PaceJitter != "" {
		if settings.PaceJitter, err = time.ParseDuration(c.Scenario.PaceJitter); err != nil {
			return scenario.Settings{}, errors.Wrap(err, "scenario.paceJitter")
		}
	}
	if settings.PaceBase < 0 || settings.PaceJitter < 0 {
		return scenario.Settings{}, errors.New("scenario pacing must not be negative")
	}
	return settings, nil
}

// Timeout returns the per-request HTTP timeout, zero for the client default.
func (c Config) Timeout() (time.Duration, error) {
	if c.Target.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Target.Timeout)
	return d, errors.Wrap(err, "target.timeout")
}

func (s Stub) DelayDuration() (time.Duration, error) {
	if s.Delay == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.Delay)
	return d, errors.Wrap(err, "stub.delay")
}
