package cmd

import (
	"encoding/json"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/lifpace/pacing"
)

var deriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "Print the tick counts derived from the pacing settings.",
	Run: func(cmd *cobra.Command, args []string) {
		c, err := loadConfig(cmd)
		if err != nil {
			log.Fatalf("Error loading configuration: %v", err)
		}

		if err := printTiming(os.Stdout, c.Pacing); err != nil {
			log.Fatalf("Error: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(deriveCmd)
}

func printTiming(w io.Writer, cfg pacing.Config) error {
	t, err := cfg.Derive()
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(t)
}
