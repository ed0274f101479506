package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/drplan/core/cohort"
	"github.com/kilianp07/drplan/infra/logger"
	"github.com/kilianp07/drplan/simulator"
)

var simCfg simulator.Config

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Acknowledge and answer signals as the cohort endpoints would",
	RunE:  simulate,
}

func init() {
	f := simulateCmd.Flags()
	f.DurationVar(&simCfg.AckLatency, "ack-latency", 0, "delay before acknowledging a signal")
	f.DurationVar(&simCfg.ResponseDelay, "response-delay", 0, "delay between ack and response")
	f.Float64Var(&simCfg.DropRate, "drop-rate", 0, "probability of never acknowledging")
	f.Float64Var(&simCfg.DeclineRate, "decline-rate", 0, "probability of declining an event")
	f.IntVar(&simCfg.Workers, "workers", 5, "concurrent signal handlers")
	rootCmd.AddCommand(simulateCmd)
}

func simulate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cohorts, err := cohort.NewFileSource(cfg.Cohorts.Path).Cohorts(ctx)
	if err != nil {
		return err
	}
	sc := simCfg
	sc.Broker = cfg.MQTT.Broker
	sc.SignalTopic = cfg.MQTT.SignalTopic
	sc.AckTopic = cfg.MQTT.AckTopic
	sc.ResponseTopic = cfg.MQTT.ResponseTopic
	ep, err := simulator.NewEndpoint(sc, cohorts, logger.New("simulator"))
	if err != nil {
		return err
	}
	return ep.Run(ctx)
}
