package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initdbCmd = &cobra.Command{
	Use:   "initdb",
	Short: "Create the archive database",
	Long:  `Create the database and schema. Safe to run on an existing archive.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		fmt.Printf("Database ready: %s\n", cfg.DatabasePath())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initdbCmd)
}
