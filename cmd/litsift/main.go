// Package main is the entry point for the litsift CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the litsift CLI.
var rootCmd = &cobra.Command{
	Use:   "litsift",
	Short: "Fetch and sift Semantic Scholar search results",
	Long: `litsift retrieves large result sets from the Semantic Scholar search API,
honoring its rate limits, and narrows them with a small boolean filter
language (field-scoped terms, phrases, wildcards, AND/OR/NOT, parentheses).

Run a search, sift the results, and export the keepers as CSV or BibTeX:

  litsift search "critical discourse" --max-results 500 --format yaml --out results.yaml
  litsift filter --in results.yaml --filter 'title:discourse AND NOT year:2008' --format csv --out kept.csv`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./litsift.yaml or ~/.config/litsift/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("litsift")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "litsift"))
		}
	}

	viper.SetEnvPrefix("LITSIFT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// interruptContext returns a context cancelled by the first SIGINT, so
// an interrupted search can still surface the records fetched so far.
func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func main() {
	ctx, stop := interruptContext()
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
