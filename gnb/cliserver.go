package gnb

import (
	loggergoModel "github.com/Alonza0314/logger-go/v2/model"
	"github.com/go5gran/ransim/clisrv"
	"github.com/go5gran/ransim/task"
)

// NewCliServerTask wires clisrv.Server's generic wire protocol to this
// gNB's App task, translating GnbCliCommand values per SPEC_FULL.md §6.8.
func NewCliServerTask(network, address string, app task.Task, log loggergoModel.LoggerInterface) *clisrv.Server {
	return clisrv.NewServer(network, address, ParseCliCommand, app, log)
}
