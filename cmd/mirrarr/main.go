// Package main is the entrypoint of Mirrarr.
package main

import (
	"fmt"
	"os"
	"time"

	"mirrarr/internal/cfg"
	"mirrarr/internal/domain/paths"
	"mirrarr/internal/utils/logging"

	"github.com/spf13/viper"
)

// init runs before the program begins.
func init() {
	if err := paths.InitProgFilesDirs(); err != nil {
		fmt.Printf("Mirrarr exiting with error: %v\n", err)
		os.Exit(1)
	}
}

func main() {
	startTime := time.Now()

	ctx, cancel := signalContext()
	defer cancel()

	if err := cfg.InitCommands(ctx); err != nil {
		fmt.Printf("Mirrarr exiting with error: %v\n", err)
		os.Exit(1)
	}

	runErr := func() error {
		if err := cfg.Execute(); err != nil {
			return err
		}

		if viper.GetBool(cfg.RunDaemonKey) {
			a, err := initializeApplication(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			logging.I("Mirrarr (PID: %d) started at: %v",
				os.Getpid(), startTime.Format("2006-01-02 15:04:05.00 MST"))
			return a.RunDaemon(ctx)
		}
		return nil
	}()

	if runErr != nil {
		logging.E("Error: %v", runErr)
		os.Exit(1)
	}
}
