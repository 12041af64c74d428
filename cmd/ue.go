package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/go5gran/ransim/logger"
	"github.com/go5gran/ransim/model"
	"github.com/go5gran/ransim/ue"
	"github.com/go5gran/ransim/util"
)

var ueCmd = &cobra.Command{
	Use:     "ue",
	Short:   "Run a simulated UE",
	Example: "ransim ue -c config/ue.yaml",
	Run:     ueFunc,
}

func init() {
	ueCmd.Flags().StringP("config", "c", "config/ue.yaml", "config file path")
	rootCmd.AddCommand(ueCmd)
}

func ueFunc(cmd *cobra.Command, args []string) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		panic(err)
	}

	cfg := model.UeConfig{}
	if err := util.LoadFromYaml(configPath, &cfg); err != nil {
		panic(err)
	}

	log := logger.NewUeLogger(cfg.Logger.Level, cfg.Logger.FilePath, cfg.Logger.DebugMode)

	node := ue.NewUe(&cfg, log)

	ctx, cancel := context.WithCancel(context.Background())
	if err := node.Start(ctx); err != nil {
		log.Errorf("error starting UE: %v", err)
		cancel()
		os.Exit(1)
	}
	defer node.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	cancel()
}
