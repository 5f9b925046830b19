package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/sarchlab/lifpace/datarecording"
)

// ErrInvalidEnv is returned for environment variables that cannot be parsed.
var ErrInvalidEnv = errors.New("invalid environment variable")

// ApplyEnv loads the given dotenv files, which never override variables that
// are already set, and then applies the LIFPACE_* variables to c.
func ApplyEnv(c *Config, files ...string) error {
	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return fmt.Errorf("load env: %w", err)
		}
	}

	setters := []struct {
		name  string
		apply func(string) error
	}{
		{"LIFPACE_SOURCE", func(v string) error {
			c.Source.Kind = v
			return nil
		}},
		{"LIFPACE_TICKS", func(v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			c.Run.Ticks = n
			return err
		}},
		{"LIFPACE_SAMPLE_RATE_HZ", intSetter(&c.Pacing.SampleRateHz)},
		{"LIFPACE_LOWER_RATE_BPM", intSetter(&c.Pacing.LowerRateBPM)},
		{"LIFPACE_BLANKING_MS", intSetter(&c.Pacing.BlankingMS)},
		{"LIFPACE_REFRACTORY_MS", intSetter(&c.Pacing.RefractoryMS)},
		{"LIFPACE_HOLD_FIRST_ESCAPE", boolSetter(&c.Pacing.HoldFirstEscape)},
		{"LIFPACE_PULSE_AMPLITUDE_MV", floatSetter(&c.Pacing.PulseAmplitudeMV)},
		{"LIFPACE_CAPTURE_THRESHOLD_MV", floatSetter(&c.Pacing.CaptureThresholdMV)},
		{"LIFPACE_CAPTURE_SEED", func(v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return err
			}
			c.Pacing.CaptureSeed = n

			return nil
		}},
		{"LIFPACE_SERIAL_DEVICE", func(v string) error {
			c.Source.Serial.Device = v
			return nil
		}},
		{"LIFPACE_SERIAL_BAUD", intSetter(&c.Source.Serial.Baud)},
		{"LIFPACE_NATS_URL", func(v string) error {
			c.NATS.URL = v
			return nil
		}},
		{"LIFPACE_NATS_PUBLISH", boolSetter(&c.NATS.Publish)},
		{"LIFPACE_MONITOR", boolSetter(&c.Monitor.Enabled)},
		{"LIFPACE_MONITOR_PORT", intSetter(&c.Monitor.Port)},
		{"LIFPACE_QUIET", boolSetter(&c.Run.Quiet)},
		{"LIFPACE_GPIO_PIN", func(v string) error {
			c.Output.GPIO.Pin = v
			return nil
		}},
		{"LIFPACE_CLICKHOUSE_ADDR", func(v string) error {
			if c.Output.ClickHouse == nil {
				c.Output.ClickHouse = &datarecording.ClickHouseOptions{}
			}
			c.Output.ClickHouse.Addr = v
			return nil
		}},
	}

	for _, s := range setters {
		v, ok := os.LookupEnv(s.name)
		if !ok || v == "" {
			continue
		}

		if err := s.apply(v); err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidEnv, s.name, v)
		}
	}

	return nil
}

func intSetter(dst *int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}

		*dst = n

		return nil
	}
}

func floatSetter(dst *float64) func(string) error {
	return func(v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}

		*dst = f

		return nil
	}
}

func boolSetter(dst *bool) func(string) error {
	return func(v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}

		*dst = b

		return nil
	}
}
