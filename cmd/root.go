package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "finder",
	Short: "Visual matching for lost and found items",
	Long: `Finder registers photos of lost and found items and tells whether a new
photo shows an item already in the catalog. Images are fingerprinted with
ORB binary descriptors and compared by Hamming distance.

The catalog lives in PostgreSQL (DATABASE_URL) or MariaDB (MARIADB_DSN).`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
