package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tacogips/addonsync/internal/logging"
)

// Global flags
var (
	globalConfig  string
	globalNoColor bool
	globalQuiet   bool
	globalDebug   bool
)

// Phase flags
var (
	flagUpdate   bool
	flagDownload bool
	flagExtract  bool
	flagCopy     bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "addonsync",
	Short: "Keep a Garry's Mod server's workshop addons up to date",
	Long: `addonsync keeps the workshop addons of a Garry's Mod dedicated server in sync
with one or more Steam Workshop collections.

Phases always run in this order, whatever the flag order:
  -u, --update    Regenerate workshop.lua and the list of outdated addons
  -d, --download  Download every outdated addon with steamcmd
  -e, --extract   Unpack downloaded addons into the staging directory
  -c, --copy      Copy the staging directory into <server_root>/garrysmod

To download every addon, set the last_updated file to 0.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.SetDebug(globalDebug)
		logging.SetNoColor(globalNoColor)
	},
	RunE: runRoot,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		printError(err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&globalConfig, FlagConfig, "", DescConfig)
	rootCmd.PersistentFlags().BoolVar(&globalNoColor, FlagNoColor, false, DescNoColor)
	rootCmd.PersistentFlags().BoolVarP(&globalQuiet, FlagQuiet, "q", false, DescQuiet)
	rootCmd.PersistentFlags().BoolVar(&globalDebug, FlagDebug, false, DescDebug)

	// Phase flags
	rootCmd.Flags().BoolVarP(&flagUpdate, FlagUpdate, "u", false, DescUpdate)
	rootCmd.Flags().BoolVarP(&flagDownload, FlagDownload, "d", false, DescDownload)
	rootCmd.Flags().BoolVarP(&flagExtract, FlagExtract, "e", false, DescExtract)
	rootCmd.Flags().BoolVarP(&flagCopy, FlagCopy, "c", false, DescCopy)

	rootCmd.AddCommand(versionCmd)
}

// printError prints an error message to stderr. Errors are shown even with
// --quiet.
func printError(err error) {
	fmt.Fprintf(stderr, "Error: %v\n", err)
}
