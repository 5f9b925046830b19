package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/sarchlab/lifpace/signal"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List the serial ports that can be used as a source.",
	Run: func(cmd *cobra.Command, args []string) {
		ports, err := signal.SerialPorts()
		if err != nil {
			log.Fatalf("Error listing serial ports: %v", err)
		}

		if len(ports) == 0 {
			fmt.Println("No serial ports found.")
			return
		}

		for _, p := range ports {
			fmt.Println(p)
		}
	},
}

func init() {
	rootCmd.AddCommand(portsCmd)
}
