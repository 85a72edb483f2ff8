package main

import (
	"os"
	"os/signal"

	"github.com/habedi/psnauth/cmd"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// debugEnv turns on debug logging when set to anything but "", "0" or "false".
const debugEnv = "DEBUG_PSNAUTH"

func main() {
	configureLogLevelFromEnv()

	stopChan := setupInterruptListener()
	go handleInterrupt(stopChan, func(msg string) { log.Fatal().Msg(msg) }, os.Exit)

	cmd.Execute()
}

// configureLogLevelFromEnv sends logs to stderr at debug level, or disables them.
func configureLogLevelFromEnv() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	switch os.Getenv(debugEnv) {
	case "", "0", "false":
		zerolog.SetGlobalLevel(zerolog.Disabled)
	default:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

func setupInterruptListener() chan os.Signal {
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt)
	return stopChan
}

// handleInterrupt waits for a signal on stopChan, logs and exits.
// A disabled fatal log does not exit, hence the explicit exit.
func handleInterrupt(stopChan chan os.Signal, fatalLog func(string), exit func(int)) {
	<-stopChan
	fatalLog("Interrupt signal received. Exiting...")
	exit(1)
}
