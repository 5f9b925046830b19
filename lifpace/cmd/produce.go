package cmd

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sarchlab/lifpace/config"
	"github.com/sarchlab/lifpace/stream"
)

var produceCmd = &cobra.Command{
	Use:   "produce",
	Short: "Stream the configured signal to NATS in real time.",
	Long: "`produce` publishes samples of the configured source on the wave " +
		"subject at the pacing sample rate, so that `run --source nats` can " +
		"consume them.",
	Run: func(cmd *cobra.Command, args []string) {
		c, err := loadConfig(cmd)
		if err != nil {
			log.Fatalf("Error loading configuration: %v", err)
		}

		if c.Source.Kind == config.SourceNATS {
			log.Fatalf("Error: cannot produce from a nats source")
		}

		if err := c.Validate(); err != nil {
			log.Fatalf("Error: %v", err)
		}

		ctx, stop := ossignal.NotifyContext(context.Background(),
			os.Interrupt, syscall.SIGTERM)
		defer stop()

		sent, err := produce(ctx, c)
		log.Printf("Published %d samples to %s", sent, c.NATS.Subjects.Wave)

		if err != nil && !errors.Is(err, io.EOF) {
			log.Fatalf("Error producing: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(produceCmd)
}

func produce(ctx context.Context, c *config.Config) (uint64, error) {
	nc, err := stream.Connect(c.NATS.URL)
	if err != nil {
		return 0, err
	}
	defer nc.Close()

	src, err := newSource(c, nil)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	sent, err := stream.Produce(ctx, nc, c.NATS.Subjects.Wave, src,
		c.Pacing.SampleRateHz, c.NATS.Batch)
	if ferr := nc.Flush(); ferr != nil && err == nil {
		err = ferr
	}

	return sent, err
}
