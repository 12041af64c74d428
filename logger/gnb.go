package logger

import (
	loggergo "github.com/Alonza0314/logger-go/v2"
	loggergoModel "github.com/Alonza0314/logger-go/v2/model"
	loggergoUtil "github.com/Alonza0314/logger-go/v2/util"
)

// GnbLogger tags one *loggergo.Logger per gNB subsystem so each task logs
// through its own scoped interface, never a bare global.
type GnbLogger struct {
	*loggergo.Logger

	CfgLog  loggergoModel.LoggerInterface
	TaskLog loggergoModel.LoggerInterface
	SctpLog loggergoModel.LoggerInterface
	NgapLog loggergoModel.LoggerInterface
	RrcLog  loggergoModel.LoggerInterface
	GtpLog  loggergoModel.LoggerInterface
	MrLog   loggergoModel.LoggerInterface
	AppLog  loggergoModel.LoggerInterface
	XnLog   loggergoModel.LoggerInterface
	CliLog  loggergoModel.LoggerInterface
}

func NewGnbLogger(level loggergoUtil.LogLevelString, filePath string, debugMode bool) *GnbLogger {
	l := loggergo.NewLogger(filePath, debugMode)
	l.SetLevel(level)

	return &GnbLogger{
		Logger: l,

		CfgLog:  l.WithTags(GNB_TAG, CONFIG_TAG),
		TaskLog: l.WithTags(GNB_TAG, TASK_TAG),
		SctpLog: l.WithTags(GNB_TAG, SCTP_TAG),
		NgapLog: l.WithTags(GNB_TAG, NGAP_TAG),
		RrcLog:  l.WithTags(GNB_TAG, RRC_TAG),
		GtpLog:  l.WithTags(GNB_TAG, GTP_TAG),
		MrLog:   l.WithTags(GNB_TAG, MR_TAG),
		AppLog:  l.WithTags(GNB_TAG, APP_TAG),
		XnLog:   l.WithTags(GNB_TAG, XN_TAG),
		CliLog:  l.WithTags(GNB_TAG, CLI_TAG),
	}
}
