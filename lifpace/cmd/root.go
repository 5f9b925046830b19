// Package cmd provides the command-line interface for lifpace.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/lifpace/config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lifpace",
	Short: "lifpace runs an adaptive spiking detector and a demand pacer.",
	Long: `lifpace feeds a sampled cardiac signal through an adaptive ` +
		`leaky integrate-and-fire detector and a demand pacing controller. ` +
		`It can run on synthetic signals, a serial front end, or samples ` +
		`streamed over NATS.`,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringSlice("env", nil,
		"dotenv files with LIFPACE_* variables")
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	envFiles, _ := cmd.Flags().GetStringSlice("env")

	c := config.Default()
	if path != "" {
		var err error

		c, err = config.Load(path)
		if err != nil {
			return nil, err
		}
	}

	if err := config.ApplyEnv(c, envFiles...); err != nil {
		return nil, err
	}

	return c, nil
}
