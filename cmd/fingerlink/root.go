package main

import (
	"fmt"
	"os"

	"github.com/ayusman/fingerlink/internal/config"
	"github.com/spf13/cobra"
)

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "fingerlink",
	Short: "Stream webcam finger states to a microcontroller",
	Long: `fingerlink reads frames from a webcam, detects one hand, decides which
fingers are extended and writes the result to a serial port as five ASCII
digits per line, thumb first:

    10110

A 1 means the finger is open. The board on the other end drives whatever
it likes from those bits.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadOver(baseConfig(cmd.Name()), configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

// baseConfig returns the defaults the config file and environment are
// layered on for the named command.
func baseConfig(name string) *config.Config {
	if name == "watch" {
		return config.DefaultWatch()
	}
	return config.Default()
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
}
