package oraclelink

import (
	"os"
	"strconv"

	"github.com/oraclelink/oraclelink/core"
	"github.com/oraclelink/oraclelink/logger/zerolog"
)

const (
	defaultLogLevel      = "info"
	defaultLogTimeFormat = "2006-01-02 15:04:05"
	defaultLogColored    = "true"
	defaultLogJSON       = "false"
)

// Environment variable names
const (
	envLogLevel      = "ORACLELINK_LOG_LEVEL"
	envLogTimeFormat = "ORACLELINK_LOG_TIME_FORMAT"
	envLogColor      = "ORACLELINK_LOG_COLOR"
	envLogJSON       = "ORACLELINK_LOG_JSON"
)

// DefaultLog is the process-wide logger, configured from the environment
var DefaultLog core.Logger

func init() {
	log, err := initLogger()
	if err != nil {
		panic(err)
	}

	DefaultLog = log
	core.DefaultLog = log
}

func initLogger() (core.Logger, error) {
	logLevel := getEnvWithDefault(envLogLevel, defaultLogLevel)
	logTimeFormat := getEnvWithDefault(envLogTimeFormat, defaultLogTimeFormat)

	logColored, err := parseBoolEnv(envLogColor, defaultLogColored)
	if err != nil {
		return nil, err
	}

	logJSON, err := parseBoolEnv(envLogJSON, defaultLogJSON)
	if err != nil {
		return nil, err
	}

	backend, err := zerolog.NewZerolog(logLevel, logTimeFormat, logColored, logJSON)
	if err != nil {
		return nil, err
	}
	return zerolog.NewAdapter(backend), nil
}

func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func parseBoolEnv(key, defaultValue string) (bool, error) {
	value := getEnvWithDefault(key, defaultValue)
	return strconv.ParseBool(value)
}
