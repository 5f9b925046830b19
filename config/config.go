// Package config loads the lifpace configuration from YAML, dotenv files and
// the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/lifpace/datarecording"
	"github.com/sarchlab/lifpace/detector"
	"github.com/sarchlab/lifpace/pacing"
	"github.com/sarchlab/lifpace/signal"
	"github.com/sarchlab/lifpace/sim/timing"
	"github.com/sarchlab/lifpace/stream"
)

// ErrInvalidConfig is wrapped by every validation error.
var ErrInvalidConfig = errors.New("invalid configuration")

// Source kinds.
const (
	SourceReference = "reference"
	SourceSequence  = "sequence"
	SourceConstant  = "constant"
	SourceECG       = "ecg"
	SourceSerial    = "serial"
	SourceNATS      = "nats"
)

// Config is the whole lifpace configuration.
type Config struct {
	Detector detector.Config `yaml:"detector"`
	Pacing   pacing.Config   `yaml:"pacing"`
	Source   SourceConfig    `yaml:"source"`
	Run      RunConfig       `yaml:"run"`
	Output   OutputConfig    `yaml:"output"`
	Monitor  MonitorConfig   `yaml:"monitor"`
	NATS     NATSConfig      `yaml:"nats"`
}

// SourceConfig selects where samples come from.
type SourceConfig struct {
	Kind     string          `yaml:"kind"`
	Samples  []signal.Sample `yaml:"samples"`
	Constant signal.Sample   `yaml:"constant"`
	ECG      ECGConfig       `yaml:"ecg"`
	Serial   SerialConfig    `yaml:"serial"`
	Artifact ArtifactConfig  `yaml:"artifact"`
}

// ECGConfig parameterizes the synthetic ECG.
type ECGConfig struct {
	HeartRateBPM float64 `yaml:"heart_rate_bpm"`
	Noise        float64 `yaml:"noise"`
	Amplitude    float64 `yaml:"amplitude"`
}

// SerialConfig locates an analog front end on a serial port.
type SerialConfig struct {
	Device      string        `yaml:"device"`
	Baud        int           `yaml:"baud"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

// ArtifactConfig adds a stimulus artifact after every pace. A zero width
// disables it.
type ArtifactConfig struct {
	Amplitude int `yaml:"amplitude"`
	Width     int `yaml:"width"`
}

// RunConfig bounds a run.
type RunConfig struct {
	// Ticks is the number of samples to process. Zero runs until the source
	// ends.
	Ticks uint64 `yaml:"ticks"`
	// Quiet disables per-event logging.
	Quiet bool `yaml:"quiet"`
	// LogEngineEvents prints every event the engine dispatches.
	LogEngineEvents bool `yaml:"log_engine_events"`
}

// OutputConfig selects the trace outputs.
type OutputConfig struct {
	CSV        string                           `yaml:"csv"`
	SQLite     string                           `yaml:"sqlite"`
	JSON       bool                             `yaml:"json"`
	ClickHouse *datarecording.ClickHouseOptions `yaml:"clickhouse"`
	GPIO       GPIOConfig                       `yaml:"gpio"`
}

// GPIOConfig names the line that mirrors the paces. An empty pin disables
// the output.
type GPIOConfig struct {
	Pin        string `yaml:"pin"`
	WidthTicks uint64 `yaml:"width_ticks"`
}

// MonitorConfig controls the monitoring server.
type MonitorConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
	Browser bool `yaml:"browser"`
}

// NATSConfig controls the NATS transport.
type NATSConfig struct {
	URL      string          `yaml:"url"`
	Subjects stream.Subjects `yaml:"subjects"`
	Publish  bool            `yaml:"publish"`
	Batch    int             `yaml:"batch"`
	Timeout  time.Duration   `yaml:"timeout"`
}

// Default returns the reference configuration.
func Default() *Config {
	return &Config{
		Detector: detector.DefaultConfig(),
		Pacing:   pacing.DefaultConfig(),
		Source: SourceConfig{
			Kind:     SourceReference,
			Constant: signal.Baseline,
			ECG: ECGConfig{
				HeartRateBPM: 72,
				Noise:        0.02,
				Amplitude:    1800,
			},
			Serial: SerialConfig{
				Baud: 115200,
			},
		},
		Run: RunConfig{
			Ticks: 1000,
		},
		NATS: NATSConfig{
			URL:      "nats://127.0.0.1:4222",
			Subjects: stream.DefaultSubjects(),
			Batch:    10,
			Timeout:  time.Second,
		},
	}
}

// Load reads a YAML file. Fields missing from the file keep their default
// values.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads YAML from r on top of the defaults.
func Parse(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(c)

	return c, nil
}

func applyDefaults(c *Config) {
	d := Default()

	if c.Source.Kind == "" {
		c.Source.Kind = d.Source.Kind
	}
	if c.Source.Serial.Baud == 0 {
		c.Source.Serial.Baud = d.Source.Serial.Baud
	}
	if c.NATS.URL == "" {
		c.NATS.URL = d.NATS.URL
	}
	if c.NATS.Subjects.Wave == "" {
		c.NATS.Subjects.Wave = d.NATS.Subjects.Wave
	}
	if c.NATS.Subjects.Events == "" {
		c.NATS.Subjects.Events = d.NATS.Subjects.Events
	}
	if c.NATS.Batch == 0 {
		c.NATS.Batch = d.NATS.Batch
	}
	if c.NATS.Timeout == 0 {
		c.NATS.Timeout = d.NATS.Timeout
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Detector.Validate(); err != nil {
		return fmt.Errorf("%w: detector: %w", ErrInvalidConfig, err)
	}

	if err := c.Pacing.Validate(); err != nil {
		return fmt.Errorf("%w: pacing: %w", ErrInvalidConfig, err)
	}

	if err := c.Source.validate(); err != nil {
		return fmt.Errorf("%w: source: %w", ErrInvalidConfig, err)
	}

	if c.Monitor.Port != 0 && (c.Monitor.Port < 1000 || c.Monitor.Port > 65535) {
		return fmt.Errorf("%w: monitor port %d", ErrInvalidConfig, c.Monitor.Port)
	}

	if c.Output.ClickHouse != nil && c.Output.ClickHouse.Addr == "" {
		return fmt.Errorf("%w: clickhouse address is empty", ErrInvalidConfig)
	}

	if c.Output.ClickHouse != nil && c.Output.SQLite != "" {
		return fmt.Errorf("%w: sqlite and clickhouse outputs are exclusive",
			ErrInvalidConfig)
	}

	return nil
}

func (s SourceConfig) validate() error {
	switch s.Kind {
	case SourceReference, SourceNATS:
	case SourceSequence:
		if len(s.Samples) == 0 {
			return signal.ErrEmptySequence
		}
	case SourceConstant:
		return s.Constant.Validate()
	case SourceECG:
		if s.ECG.HeartRateBPM <= 0 || s.ECG.Amplitude <= 0 || s.ECG.Noise < 0 {
			return signal.ErrInvalidECGParameter
		}
	case SourceSerial:
		if s.Serial.Device == "" {
			return errors.New("serial device is empty")
		}
	default:
		return fmt.Errorf("unknown kind %q", s.Kind)
	}

	if s.Artifact.Width < 0 {
		return fmt.Errorf("negative artifact width %d", s.Artifact.Width)
	}

	return nil
}

// TickFreq returns the tick frequency that matches the pacing sample rate.
func (c *Config) TickFreq() timing.Freq {
	return timing.SampleRate(c.Pacing.SampleRateHz)
}
