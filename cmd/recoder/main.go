package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/simplecsv/recoder/internal/pkg/apperr"
	"github.com/simplecsv/recoder/internal/pkg/cli"
	"github.com/simplecsv/recoder/internal/pkg/log"
)

func main() {
	logger := log.NewLogger()

	// Handle panic with correct exit code
	defer func() {
		if err := recover(); err != nil {
			exitWithError(logger, err)
		}
	}()

	if err := cli.Run(logger); err != nil {
		exitWithError(logger, err)
	}
}

func exitWithError(logger log.Logger, err any) {
	// Skip help message error
	if e, ok := err.(error); ok {
		if errors.Is(e, pflag.ErrHelp) {
			os.Exit(1)
		}
	}

	// Get message
	var msg string
	if e, ok := err.(error); ok {
		msg = e.Error()
	} else {
		msg = fmt.Sprintf("%v", err)
	}

	// Print message
	logger.Error("Error: ", msg)

	// Load exit code from the error if possible, application errors exit with code 2
	exitCode := 2
	var appErr apperr.Error
	if e, ok := err.(error); ok && errors.As(e, &appErr) {
		exitCode = appErr.ExitCode()
	}
	os.Exit(exitCode)
}
