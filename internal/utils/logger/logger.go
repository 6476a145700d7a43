// Package logger provides a global logger for the application
package logger

import (
	"flag"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

func setup() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file loaded, using process environment")
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).With().Caller().Logger()
}

// LevelForEnvironment maps ENVIRONMENT to a default level: dev and test log
// everything, prod and unknown values log info and above.
func LevelForEnvironment(environment string) zerolog.Level {
	switch strings.ToLower(environment) {
	case "dev", "test":
		return zerolog.TraceLevel
	}
	return zerolog.InfoLevel
}

func apply(environment string, logLevel zerolog.Level) {
	zerolog.SetGlobalLevel(logLevel)
	log.Info().
		Str("environment", environment).
		Str("level", logLevel.String()).
		Msg("logger initialised")
}

func environment() string {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if env == "" {
		env = "prod"
	}
	return env
}

// Init initializes the logger with the configuration from the environment
// and command line flags.
// It sets up the global logger to use zerolog with console output.
// Example usage:
//
//	logger.Init() <- inside whichever main() function in your entrypoint
//
// Then, `go run ./cmd/server --debug`
func Init() {
	setup()

	debug := flag.Bool("debug", false, "sets log level to debug")
	trace := flag.Bool("trace", false, "sets log level to trace")
	info := flag.Bool("info", false, "sets log level to info (default)")
	flag.Parse()

	env := environment()
	logLevel := LevelForEnvironment(env)
	if *debug {
		logLevel = zerolog.DebugLevel
	} else if *trace {
		logLevel = zerolog.TraceLevel
	} else if *info {
		logLevel = zerolog.InfoLevel
	}

	apply(env, logLevel)
}

// InitWithLevel is Init for entrypoints that parse their own flags.
func InitWithLevel(level string) {
	setup()

	env := environment()
	logLevel := LevelForEnvironment(env)
	if level != "" {
		parsed, err := zerolog.ParseLevel(level)
		if err != nil {
			log.Warn().Str("level", level).Msg("unknown log level, keeping environment default")
		} else {
			logLevel = parsed
		}
	}

	apply(env, logLevel)
}
