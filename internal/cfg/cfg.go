// Package cfg provides configuration and command-line interface setup for
// Mirrarr.
package cfg

import (
	"context"
	"strings"

	"mirrarr/internal/domain/keys"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RunDaemonKey is set by the root command when no subcommand is given;
// main then starts the scheduler daemon.
const RunDaemonKey = "run-daemon"

var rootCmd = &cobra.Command{
	Use:   "mirrarr",
	Short: "Mirrarr mirrors remote video channels into a media library.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Lookup("help").Changed {
			return nil
		}
		viper.Set(RunDaemonKey, true)
		return nil
	},
}

// InitCommands initializes all commands and their flags. Subcommands build
// the application lazily so flag values are already parsed.
func InitCommands(ctx context.Context) error {
	viper.SetEnvPrefix("mirrarr")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	if err := initProgramFlags(rootCmd); err != nil {
		return err
	}

	rootCmd.AddCommand(initSweepCmd(ctx))
	rootCmd.AddCommand(initDownloadCmd(ctx))
	rootCmd.AddCommand(initScheduleCmds(ctx))
	rootCmd.AddCommand(initStatusCmd(ctx))
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// initProgramFlags binds the persistent program flags into viper.
func initProgramFlags(cmd *cobra.Command) error {
	flags := cmd.PersistentFlags()

	flags.String(keys.MediaRoot, "", "Root directory for the media library (required)")
	flags.String(keys.TempRoot, "", "Directory for in-progress download fragments")
	flags.String(keys.CookieFile, "", "Netscape-format cookie file for age-restricted content")
	flags.Bool(keys.CookiesFromBrowser, false, "Source cookies from installed browsers")
	flags.Int(keys.FragmentConc, 1, "Concurrent fragments per video download")
	flags.Int(keys.DebugLevel, 0, "Debug level (0-5)")
	flags.String(keys.LogFile, "", "Log file location (default ~/.mirrarr/mirrarr.log)")
	flags.String(keys.DBPath, "", "Application database location (default ~/.mirrarr/mirrarr.db)")
	flags.String(keys.JobStorePath, "", "Scheduler job store location (default ~/.mirrarr/jobstore)")
	flags.String(keys.SubtitleLangs, "", "Subtitle languages to fetch (yt-dlp syntax)")
	flags.String(keys.OutputExt, "", "Force a container format for downloads (e.g. mkv)")

	for _, key := range []string{
		keys.MediaRoot, keys.TempRoot, keys.CookieFile, keys.CookiesFromBrowser,
		keys.FragmentConc, keys.DebugLevel, keys.LogFile, keys.DBPath,
		keys.JobStorePath, keys.SubtitleLangs, keys.OutputExt,
	} {
		if err := viper.BindPFlag(key, flags.Lookup(key)); err != nil {
			return err
		}
	}
	return nil
}
