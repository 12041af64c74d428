package ue

import (
	loggergoModel "github.com/Alonza0314/logger-go/v2/model"
	"github.com/songgao/water"

	"github.com/go5gran/ransim/message"
	"github.com/go5gran/ransim/task"
	"github.com/go5gran/ransim/util"
)

// TunTask owns one kernel tun device for exactly one established PDU
// session, per spec.md §5's resource-ownership rule. It is created and
// quit by AppTask alongside the session's lifetime.
type TunTask struct {
	task.Base

	psi  int
	name string
	log  loggergoModel.LoggerInterface

	app  task.Task
	dev  *water.Interface
}

// NewTunTask allocates the tun device via util.CreateTun before the task
// is ever run, so a creation failure can be reported synchronously to
// the caller (App), per the fatal-but-non-aborting error class of
// spec.md §7.
func NewTunTask(opts util.TunOptions, app task.Task, log loggergoModel.LoggerInterface) (*TunTask, error) {
	dev, err := util.CreateTun(opts)
	if err != nil {
		return nil, err
	}
	return &TunTask{
		Base: task.NewBase(64),
		psi:  opts.Psi,
		name: dev.Name(),
		log:  log,
		app:  app,
		dev:  dev,
	}, nil
}

func (t *TunTask) Run() {
	go t.Base.Run(t.handle, t.onQuit)
	go t.readLoop()
}

func (t *TunTask) handle(msg any) {
	switch m := msg.(type) {
	case message.AppToTunData:
		if _, err := t.dev.Write(m.Data); err != nil {
			t.app.Push(message.TunError{Psi: t.psi, Err: err})
		}
	}
}

func (t *TunTask) readLoop() {
	buf := make([]byte, 65535)
	for {
		n, err := t.dev.Read(buf)
		if err != nil {
			return
		}
		pkt := make([]byte, n)
		copy(pkt, buf[:n])
		t.app.Push(message.TunToAppData{Psi: t.psi, Data: pkt})
	}
}

func (t *TunTask) onQuit() {
	t.dev.Close()
	if err := util.DestroyTun(t.name); err != nil {
		t.log.Warnf("error destroying tun device %s: %v", t.name, err)
	}
}
