package gnb

import (
	"context"
	"encoding/hex"
	"fmt"
	"net"

	"github.com/free5gc/openapi/models"
	"github.com/pkg/errors"
	"github.com/go5gran/ransim/clisrv"
	"github.com/go5gran/ransim/logger"
	"github.com/go5gran/ransim/model"
	"github.com/go5gran/ransim/task"
	"github.com/go5gran/ransim/util"
)

// Gnb assembles every task of a simulated gNB instance and owns their
// lifecycle, adapted from the teacher's Gnb struct (gnb/gnb.go) but
// restructured around the mailbox task runtime instead of one
// synchronous goroutine per UE connection.
type Gnb struct {
	cfg *model.GnbConfig
	log *logger.GnbLogger

	sctp   *SctpTask
	gtp    *GtpTask
	mr     *MrTask
	ngap   *NgapTask
	rrc    *RrcTask
	app    *AppTask
	cliSrv *clisrv.Server
}

func NewGnb(cfg *model.GnbConfig, log *logger.GnbLogger) (*Gnb, error) {
	gnbID, err := hex.DecodeString(cfg.Gnb.GnbId)
	if err != nil {
		return nil, errors.Wrap(err, "decoding gnbId")
	}

	plmnID, err := util.PlmnIdToNgap(models.PlmnId{Mcc: cfg.Gnb.PlmnId.Mcc, Mnc: cfg.Gnb.PlmnId.Mnc})
	if err != nil {
		return nil, errors.Wrap(err, "converting plmnId")
	}

	tai, err := util.TaiToNgap(cfg.Gnb.Tai.Tac, models.PlmnId{Mcc: cfg.Gnb.Tai.BroadcastPlmnId.Mcc, Mnc: cfg.Gnb.Tai.BroadcastPlmnId.Mnc})
	if err != nil {
		return nil, errors.Wrap(err, "converting tai")
	}

	sctpTask := NewSctpTask(cfg.Gnb.RanN2Ip, nil, log.SctpLog)
	ngapTask := NewNgapTask(&cfg.Gnb, gnbID, plmnID, tai, sctpTask, log.NgapLog)
	sctpTask.target = ngapTask

	rrcTask := NewRrcTask(cfg.Gnb.RanIp, cfg.Gnb.RanPort, ngapTask, log.RrcLog)
	ngapTask.SetRrc(rrcTask)

	// The N3 UPF connection, when configured, is dialled here rather than
	// deferred into Start(): the pause set every CLI command samples
	// against (spec.md §4.7's "always pauses the five worker tasks")
	// must already include GTP/MR by the time AppTask is constructed, or
	// they can never join it.
	all := []task.Task{sctpTask, ngapTask, rrcTask}
	var gtpTask *GtpTask
	var mrTask *MrTask
	if cfg.Gnb.UpfN3Ip != "" {
		conn, err := dialUpf(&cfg.Gnb)
		if err != nil {
			return nil, errors.Wrap(err, "connecting to UPF")
		}
		mrTask = NewMrTask(nil, log.MrLog)
		gtpTask = NewGtpTask(conn, mrTask, log.GtpLog)
		mrTask.gtp = gtpTask
		mrTask.SetRrc(rrcTask)
		rrcTask.SetMr(mrTask)
		ngapTask.SetMr(mrTask)
		all = append(all, gtpTask, mrTask)
	}

	appTask := NewAppTask(ngapTask, all, log.AppLog)
	ngapTask.SetApp(appTask)

	cliSrv := NewCliServerTask(cfg.Cli.Network, cfg.Cli.Address, appTask, log.CliLog)

	return &Gnb{
		cfg:    cfg,
		log:    log,
		sctp:   sctpTask,
		gtp:    gtpTask,
		mr:     mrTask,
		ngap:   ngapTask,
		rrc:    rrcTask,
		app:    appTask,
		cliSrv: cliSrv,
	}, nil
}

func (g *Gnb) Start(ctx context.Context) error {
	g.sctp.Run()
	g.ngap.Run()
	g.rrc.Run()
	g.app.Run()
	if g.gtp != nil {
		g.gtp.Run()
		g.mr.Run()
	}

	if err := g.rrc.Serve(ctx); err != nil {
		return errors.Wrap(err, "starting RRC listener")
	}

	go func() {
		if err := g.cliSrv.Serve(ctx); err != nil {
			g.log.CliLog.Warnf("CLI server stopped: %v", err)
		}
	}()

	g.ngap.StartAssociations()
	for _, amf := range g.ngap.amfs.All() {
		if err := g.sctp.Associate(amf.AmfID, amf.Ip, amf.Port); err != nil {
			g.log.SctpLog.Errorf("Error associating with amf %d: %v", amf.AmfID, err)
		}
	}

	g.log.AppLog.Infoln("gNB started")
	return nil
}

// dialUpf resolves and dials the N3 UDP path to the UPF, split out of
// NewGnb so construction can fail fast without partially wiring GtpTask.
func dialUpf(cfg *model.GnbIE) (*net.UDPConn, error) {
	upfAddr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", cfg.UpfN3Ip, cfg.UpfN3Port))
	if err != nil {
		return nil, err
	}
	ranAddr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", cfg.RanN3Ip, cfg.RanN3Port))
	if err != nil {
		return nil, err
	}
	return net.DialUDP("udp", ranAddr, upfAddr)
}

func (g *Gnb) Stop() {
	g.cliSrv.Close()
	g.rrc.Quit()
	g.sctp.Quit()
	g.ngap.Quit()
	g.app.Quit()
	if g.gtp != nil {
		g.gtp.Quit()
		g.mr.Quit()
	}
	g.log.AppLog.Infoln("gNB stopped")
}
