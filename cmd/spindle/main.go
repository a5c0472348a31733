package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/minefleet/spindle/internal/models"
	"github.com/minefleet/spindle/internal/version"
	"github.com/minefleet/spindle/pkg/aws"
	"github.com/minefleet/spindle/pkg/bot"
	"github.com/minefleet/spindle/pkg/cache"
	"github.com/minefleet/spindle/pkg/config"
	"github.com/minefleet/spindle/pkg/formatter"
	"github.com/minefleet/spindle/pkg/mc"
	"github.com/minefleet/spindle/pkg/pricing"
	"github.com/minefleet/spindle/pkg/utils"
)

var (
	cfgFile     string
	logLevel    string
	showVersion bool
)

// cpuWindow is the CloudWatch averaging window for the status report
const cpuWindow = 15 * time.Minute

func main() {
	rootCmd := &cobra.Command{
		Use:   "spindle",
		Short: "Discord bot that spins a game server's EC2 instance up and down",
		Long: `spindle listens for chat commands in a single Discord channel and
translates them into EC2 instance lifecycle calls (start, stop,
describe, public address).`,
		SilenceUsage: true,
		RunE:         runBot,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to config file (default: ./spindle.yaml, $HOME/.spindle/spindle.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "Show version information")

	rootCmd.AddCommand(newStatusCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads configuration and prepares the EC2 client bound to the
// managed instance. Shared by the bot and the one-shot status command.
func setup(ctx context.Context) (*config.Config, *aws.EC2Client, error) {
	if err := setupLogging(); err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}

	region := aws.DetectRegion(ctx, cfg.AWS.Region)
	if !utils.IsValidRegion(region) {
		logrus.WithField("region", region).Warn("region not recognized, continuing anyway")
	}

	client, err := aws.NewEC2Client(ctx, region)
	if err != nil {
		return nil, nil, err
	}

	if err := client.ResolveInstance(ctx, cfg.AWS.InstanceID, cfg.AWS.InstanceTag); err != nil {
		return nil, nil, err
	}

	logrus.WithFields(logrus.Fields{
		"instance": client.InstanceID(),
		"region":   region,
	}).Info("instance resolved")

	return cfg, client, nil
}

func setupLogging() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return nil
}

// runBot is the long-running mode: connect to Discord and relay commands
func runBot(cmd *cobra.Command, args []string) error {
	if showVersion {
		fmt.Println(version.Get().String())
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, client, err := setup(ctx)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	controller := bot.NewController(
		client,
		cache.New(cfg.Cache.TTL),
		mc.NewQueryClient(cfg.MC.Timeout),
		cfg.MC.Port,
	)

	b, err := bot.New(cfg, controller)
	if err != nil {
		return err
	}

	logrus.Info("spindle running, press ctrl-c to stop")
	return b.Run(ctx)
}

// newStatusCmd builds the one-shot status report command. It never touches
// Discord; only the describe, CloudWatch, and Pricing APIs.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print a one-shot status report for the managed instance",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, client, err := setup(ctx)
			if err != nil {
				return err
			}

			s := spinner.New(spinner.CharSets[9], 100*time.Millisecond)
			s.Suffix = " Describing instance ..."
			s.Start()

			instance, err := client.DescribeInstance(ctx)
			if err != nil {
				s.Stop()
				return err
			}

			report := formatter.StatusReport{Instance: instance}

			if instance.State == models.StateRunning {
				if metrics, merr := aws.NewMetricsClient(ctx, client.Region()); merr == nil {
					if cpu, cerr := metrics.GetAverageCPU(ctx, client.InstanceID(), cpuWindow); cerr == nil {
						report.CPUPercent = cpu
						report.HasCPU = true
					} else {
						logrus.WithError(cerr).Debug("CPU metric unavailable")
					}
				}

				report.MonthlyCost, report.CostSource = pricing.CalculateMonthlyCostWithSource(
					instance.InstanceType, instance.Region)

				if instance.PublicIP != "" {
					pinger := mc.NewQueryClient(cfg.MC.Timeout)
					if status, perr := pinger.Ping(instance.PublicIP, cfg.MC.Port); perr == nil {
						report.Server = status
					}
				}
			}

			s.Stop()
			formatter.PrintStatusReport(os.Stdout, report)
			return nil
		},
	}
}
