package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "importer",
	Short: "Anillos catalog importer",
	Long:  "Imports the ring catalog published on the legacy WordPress site into the catalog database.",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initLogger)
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.SilenceUsage = true
}

func initLogger() {
	level := zerolog.InfoLevel
	if v, _ := rootCmd.PersistentFlags().GetBool("debug"); v {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}
