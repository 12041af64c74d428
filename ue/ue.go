package ue

import (
	"context"

	"github.com/pkg/errors"

	"github.com/go5gran/ransim/clisrv"
	"github.com/go5gran/ransim/logger"
	"github.com/go5gran/ransim/model"
	"github.com/go5gran/ransim/task"
)

// Ue assembles every task of a simulated UE instance and owns their
// lifecycle, mirroring gnb/gnb.go's Gnb struct on the UE side of the
// Uu link.
type Ue struct {
	cfg *model.UeConfig
	log *logger.UeLogger

	nas    *NasTask
	rrc    *RrcTask
	mr     *MrTask
	app    *AppTask
	cliSrv *clisrv.Server
}

func NewUe(cfg *model.UeConfig, log *logger.UeLogger) *Ue {
	nasTask := NewNasTask(cfg, log.MmLog)
	rrcTask := NewRrcTask(cfg.Ue.RanIp, cfg.Ue.RanPort, nasTask, log.RrcLog)
	nasTask.SetRrc(rrcTask)

	mrTask := NewMrTask(log.MrLog)
	mrTask.SetRrc(rrcTask)
	rrcTask.SetMr(mrTask)

	all := []task.Task{nasTask, rrcTask, mrTask}
	appTask := NewAppTask(cfg, nasTask, mrTask, all, log.AppLog)
	nasTask.SetApp(appTask)
	mrTask.SetApp(appTask)

	cliSrv := NewCliServerTask(cfg.Cli.Network, cfg.Cli.Address, appTask, log.CliLog)

	return &Ue{
		cfg:    cfg,
		log:    log,
		nas:    nasTask,
		rrc:    rrcTask,
		mr:     mrTask,
		app:    appTask,
		cliSrv: cliSrv,
	}
}

func (u *Ue) Start(ctx context.Context) error {
	u.nas.Run()
	u.rrc.Run()
	u.mr.Run()
	u.app.Run()

	u.app.SetOnSwitchOff(func() {
		u.log.Infoln("switch-off grace timer expired, stopping UE")
		u.Stop()
	})

	if err := u.rrc.Connect(); err != nil {
		return errors.Wrap(err, "connecting to gNB Uu")
	}

	go func() {
		if err := u.cliSrv.Serve(ctx); err != nil {
			u.log.CliLog.Warnf("CLI server stopped: %v", err)
		}
	}()

	// Kick off the NAS-MM cycle: with autoBehaviour on and CM_IDLE at
	// boot, the first cycle drives DEREGISTERED_NA -> PLMN search, per
	// spec.md §4.5 and scenario 4.
	u.nas.triggerMmCycle()

	u.log.Infoln("UE started")
	return nil
}

func (u *Ue) Stop() {
	u.cliSrv.Close()
	u.nas.Quit()
	u.rrc.Quit()
	u.mr.Quit()
	u.app.Quit()
	u.log.Infoln("UE stopped")
}
