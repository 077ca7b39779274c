package main

import (
	"fmt"

	"github.com/ayusman/fingerlink/internal/link"
	"github.com/spf13/cobra"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports",
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := link.ListPorts()
		if err != nil {
			return err
		}
		if len(ports) == 0 {
			fmt.Println("No serial ports found")
			return nil
		}
		for _, p := range ports {
			marker := " "
			if p == cfg.Serial.Port {
				marker = "*"
			}
			fmt.Printf("%s %s\n", marker, p)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(portsCmd)
}
