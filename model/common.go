package model

import loggergoUtil "github.com/Alonza0314/logger-go/v2/util"

// LoggerIE is the logger configuration block shared by every node config,
// matching the (level, filePath, debugMode) triple NewGnbLogger /
// NewUeLogger take.
type LoggerIE struct {
	Level     loggergoUtil.LogLevelString `yaml:"level"`
	FilePath  string                      `yaml:"filePath"`
	DebugMode bool                        `yaml:"debugMode"`
}

// CliIE configures the always-on northbound CLI command plane, listening
// on either a TCP or a Unix-domain socket per spec.md §6.
type CliIE struct {
	Network string `yaml:"network"` // "tcp" or "unix"
	Address string `yaml:"address"`
}
