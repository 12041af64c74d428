package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/go5gran/ransim/gnb"
	"github.com/go5gran/ransim/logger"
	"github.com/go5gran/ransim/model"
	"github.com/go5gran/ransim/util"
)

var gnbCmd = &cobra.Command{
	Use:     "gnb",
	Short:   "Run a simulated gNodeB",
	Example: "ransim gnb -c config/gnb.yaml",
	Run:     gnbFunc,
}

func init() {
	gnbCmd.Flags().StringP("config", "c", "config/gnb.yaml", "config file path")
	rootCmd.AddCommand(gnbCmd)
}

func gnbFunc(cmd *cobra.Command, args []string) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		panic(err)
	}

	cfg := model.GnbConfig{}
	if err := util.LoadFromYaml(configPath, &cfg); err != nil {
		panic(err)
	}

	log := logger.NewGnbLogger(cfg.Logger.Level, cfg.Logger.FilePath, cfg.Logger.DebugMode)

	node, err := gnb.NewGnb(&cfg, log)
	if err != nil {
		log.Errorf("error constructing gNB: %v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := node.Start(ctx); err != nil {
		log.Errorf("error starting gNB: %v", err)
		cancel()
		os.Exit(1)
	}
	defer node.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	cancel()
}
