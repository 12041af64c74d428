package gnb

import (
	"fmt"
	"time"

	loggergoModel "github.com/Alonza0314/logger-go/v2/model"
	"github.com/go5gran/ransim/message"
	"github.com/go5gran/ransim/task"
	"gopkg.in/yaml.v2"
)

// pauseBudget bounds how long App waits for every task to confirm a
// pause before giving up and answering the CLI request with an error,
// per the 3s pause-confirmation budget of the task runtime contract.
const pauseBudget = 3 * time.Second

// AppTask is the gNB's top-level coordinator: it answers CLI requests,
// pausing the rest of the node's tasks first whenever a command needs a
// consistent snapshot.
type AppTask struct {
	task.Base

	log loggergoModel.LoggerInterface

	ngap *NgapTask
	all  []task.Task // every pausable task, including ngap

	up bool
}

func NewAppTask(ngap *NgapTask, all []task.Task, log loggergoModel.LoggerInterface) *AppTask {
	return &AppTask{
		Base: task.NewBase(64),
		log:  log,
		ngap: ngap,
		all:  all,
	}
}

func (a *AppTask) Run() {
	go a.Base.Run(a.handle, func() {})
}

func (a *AppTask) handle(msg any) {
	switch m := msg.(type) {
	case message.NgapIsUp:
		a.up = true
		a.log.Infoln("All configured AMFs connected")
	case message.NgapHandoverPreparationRequested:
		a.log.Infof("Handover preparation requested for ue %d", m.UeID)
	case message.CliRequest:
		a.handleCli(m)
	}
}

func (a *AppTask) handleCli(req message.CliRequest) {
	switch cmd := req.Cmd.(type) {
	case CliStatus:
		req.Reply <- message.CliResponse{Text: a.status()}
	case CliInfo:
		req.Reply <- message.CliResponse{Text: a.info()}
	case CliAmfList:
		req.Reply <- message.CliResponse{Text: a.amfList()}
	case CliAmfInfo:
		req.Reply <- a.amfInfo(cmd.AmfID)
	case CliUeList:
		req.Reply <- message.CliResponse{Text: a.ueList()}
	case CliUeCount:
		req.Reply <- message.CliResponse{Text: a.ueCount()}
	case CliHandoverPrepare:
		a.ngap.Push(message.NgapHandoverPrepareCmd{UeID: cmd.UeID})
		req.Reply <- message.CliResponse{Text: "handover preparation requested\n"}
	case CliHandover:
		a.ngap.Push(message.NgapHandoverCmd{
			AsAmfID:      cmd.AsAmfID,
			AmfUeNgapID:  cmd.AmfUeNgapID,
			RanUeNgapID:  cmd.RanUeNgapID,
			CtxtID:       cmd.CtxtID,
			UplinkStream: cmd.UplinkStream,
			AmfName:      cmd.AmfName,
		})
		req.Reply <- message.CliResponse{Text: "handover requested\n"}
	default:
		req.Reply <- message.CliResponse{Err: fmt.Errorf("unknown command")}
	}
}

// status samples NgapTask-owned state, so it pauses the worker tasks
// first like every other CLI handler that reads across task boundaries
// (invariant I7: no sample reads state from a task that has not
// confirmed pause).
func (a *AppTask) status() string {
	if !task.PauseAll(a.all, pauseBudget) {
		task.UnpauseAll(a.all)
		return "error: pause budget exceeded\n"
	}
	defer task.UnpauseAll(a.all)

	out, _ := yaml.Marshal(map[string]any{
		"up":       a.up,
		"amfCount": len(a.ngap.amfs.All()),
		"ueCount":  a.ngap.ues.Count(),
	})
	return string(out)
}

// ueCount samples NgapTask's UE table under the same pause discipline as
// status/info/amfList/ueList.
func (a *AppTask) ueCount() string {
	if !task.PauseAll(a.all, pauseBudget) {
		task.UnpauseAll(a.all)
		return "error: pause budget exceeded\n"
	}
	defer task.UnpauseAll(a.all)

	return fmt.Sprintf("ueCount: %d\n", a.ngap.ues.Count())
}

func (a *AppTask) info() string {
	if !task.PauseAll(a.all, pauseBudget) {
		task.UnpauseAll(a.all)
		return "error: pause budget exceeded\n"
	}
	defer task.UnpauseAll(a.all)

	out, _ := yaml.Marshal(map[string]any{
		"gnbName": a.ngap.cfg.GnbName,
		"amfs":    len(a.ngap.amfs.All()),
		"ues":     a.ngap.ues.Count(),
	})
	return string(out)
}

func (a *AppTask) amfList() string {
	if !task.PauseAll(a.all, pauseBudget) {
		task.UnpauseAll(a.all)
		return "error: pause budget exceeded\n"
	}
	defer task.UnpauseAll(a.all)

	type entry struct {
		AmfID int    `yaml:"amfId"`
		State int    `yaml:"state"`
		Name  string `yaml:"name"`
	}
	var entries []entry
	for _, amf := range a.ngap.amfs.All() {
		entries = append(entries, entry{AmfID: amf.AmfID, State: int(amf.State), Name: amf.AmfName})
	}
	out, _ := yaml.Marshal(entries)
	return string(out)
}

func (a *AppTask) amfInfo(amfID int) message.CliResponse {
	if !task.PauseAll(a.all, pauseBudget) {
		task.UnpauseAll(a.all)
		return message.CliResponse{Err: fmt.Errorf("pause budget exceeded")}
	}
	defer task.UnpauseAll(a.all)

	amf, ok := a.ngap.amfs.Get(amfID)
	if !ok {
		return message.CliResponse{Err: fmt.Errorf("AMF not found with given ID")}
	}
	out, _ := yaml.Marshal(amf)
	return message.CliResponse{Text: string(out)}
}

func (a *AppTask) ueList() string {
	if !task.PauseAll(a.all, pauseBudget) {
		task.UnpauseAll(a.all)
		return "error: pause budget exceeded\n"
	}
	defer task.UnpauseAll(a.all)

	type entry struct {
		UeID        int   `yaml:"ueId"`
		AmfID       int   `yaml:"amfId"`
		RanUeNgapID int64 `yaml:"ranUeNgapId"`
	}
	var entries []entry
	for _, ctx := range a.ngap.ues.All() {
		entries = append(entries, entry{UeID: ctx.UeID, AmfID: ctx.AmfID, RanUeNgapID: ctx.RanUeNgapID})
	}
	out, _ := yaml.Marshal(entries)
	return string(out)
}
