package main

import (
	"context"
	"fmt"

	"mirrarr/internal/app"
	"mirrarr/internal/domain/keys"
	"mirrarr/internal/domain/paths"
	"mirrarr/internal/utils/logging"

	"github.com/spf13/viper"
)

// initializeApplication sets up logging and wires the application for the
// daemon run.
func initializeApplication(ctx context.Context) (*app.App, error) {
	logFile := viper.GetString(keys.LogFile)
	if logFile == "" {
		logFile = paths.LogFilePath
	}
	if err := logging.Setup(logFile, viper.GetInt(keys.DebugLevel)); err != nil {
		fmt.Printf("could not set up logging, proceeding without: %v\n", err)
	}

	fmt.Printf("\nMain Mirrarr file/dir locations:\n\nDatabase: %s\nJob store: %s\nLog file: %s\n\n",
		paths.DBFilePath, paths.JobStoreDirPath, logFile)

	return app.New(ctx)
}
