package logger

import (
	loggergo "github.com/Alonza0314/logger-go/v2"
	loggergoModel "github.com/Alonza0314/logger-go/v2/model"
	loggergoUtil "github.com/Alonza0314/logger-go/v2/util"
)

// UeLogger tags one *loggergo.Logger per UE subsystem, mirroring GnbLogger.
type UeLogger struct {
	*loggergo.Logger

	CfgLog  loggergoModel.LoggerInterface
	TaskLog loggergoModel.LoggerInterface
	MmLog   loggergoModel.LoggerInterface
	SmLog   loggergoModel.LoggerInterface
	NasLog  loggergoModel.LoggerInterface
	RrcLog  loggergoModel.LoggerInterface
	MrLog   loggergoModel.LoggerInterface
	TunLog  loggergoModel.LoggerInterface
	AppLog  loggergoModel.LoggerInterface
	CliLog  loggergoModel.LoggerInterface
}

func NewUeLogger(level loggergoUtil.LogLevelString, filePath string, debugMode bool) *UeLogger {
	l := loggergo.NewLogger(filePath, debugMode)
	l.SetLevel(level)

	return &UeLogger{
		Logger: l,

		CfgLog:  l.WithTags(UE_TAG, CONFIG_TAG),
		TaskLog: l.WithTags(UE_TAG, TASK_TAG),
		MmLog:   l.WithTags(UE_TAG, MM_TAG),
		SmLog:   l.WithTags(UE_TAG, SM_TAG),
		NasLog:  l.WithTags(UE_TAG, NAS_TAG),
		RrcLog:  l.WithTags(UE_TAG, RRC_TAG),
		MrLog:   l.WithTags(UE_TAG, MR_TAG),
		TunLog:  l.WithTags(UE_TAG, TUN_TAG),
		AppLog:  l.WithTags(UE_TAG, APP_TAG),
		CliLog:  l.WithTags(UE_TAG, CLI_TAG),
	}
}
