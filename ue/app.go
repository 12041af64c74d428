package ue

import (
	"fmt"
	"net"
	"time"

	loggergoModel "github.com/Alonza0314/logger-go/v2/model"
	"gopkg.in/yaml.v2"

	"github.com/go5gran/ransim/message"
	"github.com/go5gran/ransim/model"
	"github.com/go5gran/ransim/task"
	"github.com/go5gran/ransim/util"
)

const (
	pauseBudget    = 3 * time.Second
	timerSwitchOff = -1 // negative: never collides with a 3GPP timer code
)

// AppTask is the UE's top-level coordinator: it owns the per-PSI tun
// task array, bridges MR and tun traffic, answers CLI requests (pausing
// the rest of the node first), and arms the switch-off grace timer, per
// spec.md §4.4.
type AppTask struct {
	task.Base

	cfg *model.UeConfig
	log loggergoModel.LoggerInterface

	nas *NasTask
	mr  task.Task
	all []task.Task

	timers *task.TimerSet

	tunTasks [16]*TunTask
	sessions [16]message.PduSessionSummary

	onSwitchOff func()
}

func NewAppTask(cfg *model.UeConfig, nas *NasTask, mr task.Task, all []task.Task, log loggergoModel.LoggerInterface) *AppTask {
	a := &AppTask{
		Base: task.NewBase(64),
		cfg:  cfg,
		log:  log,
		nas:  nas,
		mr:   mr,
		all:  all,
	}
	a.timers = task.NewTimerSet(a)
	return a
}

// SetOnSwitchOff wires the external UE controller hook of spec.md §4.4;
// invoked once the 500ms switch-off grace timer expires.
func (a *AppTask) SetOnSwitchOff(fn func()) { a.onSwitchOff = fn }

func (a *AppTask) Run() {
	go a.Base.Run(a.handle, a.onQuit)
}

func (a *AppTask) handle(msg any) {
	switch m := msg.(type) {
	case message.MrToAppData:
		a.routeToTun(m.Psi, m.Data)
	case message.TunToAppData:
		if a.mr != nil {
			a.mr.Push(message.AppToMrData{Psi: m.Psi, Data: m.Data})
		}
	case message.TunError:
		a.log.Errorf("tun error on psi %d: %v", m.Psi, m.Err)
	case message.PerformSwitchOff:
		a.timers.Start(timerSwitchOff, 500*time.Millisecond)
	case task.TimerExpired:
		if m.ID == timerSwitchOff && a.onSwitchOff != nil {
			a.onSwitchOff()
		}
	case message.SessionEstablishment:
		a.setupTunInterface(m.Summary)
	case message.SessionRelease:
		a.releaseTun(m.Psi)
	case message.CliRequest:
		a.handleCli(m)
	}
}

func (a *AppTask) routeToTun(psi int, data []byte) {
	if psi < 1 || psi > 15 || a.tunTasks[psi] == nil {
		return
	}
	a.tunTasks[psi].Push(message.AppToTunData{Psi: psi, Data: data})
}

// setupTunInterface materialises a tun device for a newly established
// PDU session, per spec.md §4.4's precondition list.
func (a *AppTask) setupTunInterface(summary message.PduSessionSummary) {
	if summary.Psi < 1 || summary.Psi > 15 {
		a.log.Errorf("session establishment with out-of-range psi %d", summary.Psi)
		return
	}
	if a.tunTasks[summary.Psi] != nil {
		a.log.Errorf("session establishment for already-occupied psi %d", summary.Psi)
		return
	}
	addr := net.ParseIP(summary.UeIP)
	if addr == nil || addr.To4() == nil {
		a.log.Errorf("session establishment with invalid IPv4 address %q", summary.UeIP)
		return
	}

	opts := util.TunOptions{
		NamePrefix:       a.cfg.Ue.TunNamePrefix,
		Psi:              summary.Psi,
		Address:          addr,
		PrefixLen:        32,
		ConfigureRouting: a.cfg.Ue.ConfigureRouting,
	}
	tunTask, err := NewTunTask(opts, a, a.log)
	if err != nil {
		a.log.Errorf("error creating tun device for psi %d: %v", summary.Psi, err)
		return
	}

	summary.TunName = tunTask.name
	a.sessions[summary.Psi] = summary
	a.tunTasks[summary.Psi] = tunTask
	tunTask.Run()
	a.log.Infof("tun interface %s up for psi %d, address %s", tunTask.name, summary.Psi, summary.UeIP)
}

func (a *AppTask) releaseTun(psi int) {
	if psi < 1 || psi > 15 || a.tunTasks[psi] == nil {
		return
	}
	a.tunTasks[psi].Quit()
	a.tunTasks[psi] = nil
	a.sessions[psi] = message.PduSessionSummary{}
}

func (a *AppTask) onQuit() {
	a.timers.StopAll()
	for psi, t := range a.tunTasks {
		if t != nil {
			t.Quit()
			a.tunTasks[psi] = nil
		}
	}
}

func (a *AppTask) handleCli(req message.CliRequest) {
	switch cmd := req.Cmd.(type) {
	case CliUeInfo:
		req.Reply <- message.CliResponse{Text: a.info()}
	case CliUeStatus:
		req.Reply <- message.CliResponse{Text: a.status()}
	case CliUeTimers:
		req.Reply <- message.CliResponse{Text: a.timersSnapshot()}
	case CliUeDeRegister:
		a.nas.Push(message.DeRegisterCmd{IsSwitchOff: cmd.IsSwitchOff, DueToDisable5g: cmd.DueToDisable5g})
		req.Reply <- message.CliResponse{Text: "de-registration requested\n"}
	default:
		req.Reply <- message.CliResponse{Err: fmt.Errorf("unknown command")}
	}
}

func (a *AppTask) info() string {
	if !task.PauseAll(a.all, pauseBudget) {
		task.UnpauseAll(a.all)
		return "error: pause budget exceeded\n"
	}
	defer task.UnpauseAll(a.all)

	out, _ := yaml.Marshal(map[string]any{
		"supi": a.nas.supi,
		"plmn": fmt.Sprintf("%s%s", a.cfg.Ue.PlmnId.Mcc, a.cfg.Ue.PlmnId.Mnc),
	})
	return string(out)
}

func (a *AppTask) status() string {
	if !task.PauseAll(a.all, pauseBudget) {
		task.UnpauseAll(a.all)
		return "error: pause budget exceeded\n"
	}
	defer task.UnpauseAll(a.all)

	type sessionEntry struct {
		Psi int    `yaml:"psi"`
		Dnn string `yaml:"dnn"`
		Ip  string `yaml:"ip"`
	}
	var sessions []sessionEntry
	for psi, s := range a.sessions {
		if a.tunTasks[psi] != nil {
			sessions = append(sessions, sessionEntry{Psi: psi, Dnn: s.Dnn, Ip: s.UeIP})
		}
	}

	out, _ := yaml.Marshal(map[string]any{
		"mmState":    int(a.nas.mmState),
		"mmSubState": int(a.nas.mmSubState),
		"rmState":    int(a.nas.rmState),
		"cmState":    int(a.nas.cmState),
		"sessions":   sessions,
	})
	return string(out)
}

func (a *AppTask) timersSnapshot() string {
	if !task.PauseAll(a.all, pauseBudget) {
		task.UnpauseAll(a.all)
		return "error: pause budget exceeded\n"
	}
	defer task.UnpauseAll(a.all)

	out, _ := yaml.Marshal(map[string]any{
		"t3346Running": a.nas.timers.IsRunning(timerT3346),
		"t3512Running": a.nas.timers.IsRunning(timerT3512),
		"t3521Running": a.nas.timers.IsRunning(timerT3521),
		"t3521Retries": a.nas.t3521RetryCount,
	})
	return string(out)
}
