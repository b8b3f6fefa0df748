package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/zxhio/delaysim/cmd/delaysim/util"
	"github.com/zxhio/delaysim/internal/config"
	"github.com/zxhio/delaysim/internal/executor"
	"github.com/zxhio/delaysim/internal/irq"
	"github.com/zxhio/delaysim/internal/model"
	"github.com/zxhio/delaysim/internal/service"
	"github.com/zxhio/delaysim/internal/state"
	"github.com/zxhio/delaysim/pkg/builder"
	"github.com/zxhio/delaysim/pkg/utils"
	"golang.org/x/sys/unix"
)

const logoAscii = `     |     |
  /~~| /~/ | /~~|\  /
  \__| \/_ | \__| \/  sim
                  /`

type options struct {
	show      bool
	verbose   bool
	force     bool
	yaml      string
	stateFile string
	irq       bool
	output    bool
	delay     string
	setup     bool
	teardown  bool
	logFile   string
	version   bool
}

var opts options

var rootCmd = &cobra.Command{
	Use:   "delaysim",
	Short: "Configures the Linux OS to process delay-simulator parameters\n\n" + color.HiBlueString(logoAscii),
	Args:  cobra.NoArgs,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(opts.verbose, opts.logFile)
	},
	Run: func(cmd *cobra.Command, args []string) {
		if opts.version {
			fmt.Println(builder.BuildInfo())
			os.Exit(0)
		}
		if !opts.setup && !opts.teardown && !opts.irq && !opts.output {
			cmd.Help()
			return
		}

		cfg, err := config.Load(opts.yaml, config.WithDefaultDelay(opts.delay))
		utils.CheckErrorAndExit(err, "Load config %s", opts.yaml)

		if !opts.show && (opts.setup || opts.teardown || opts.irq) && unix.Geteuid() != 0 {
			logrus.Warn("Not running as root, kernel and link changes will likely fail")
		}

		runner := executor.New(executor.WithShowOnly(opts.show), executor.WithVerbose(opts.verbose))
		for _, group := range cfg.Groups {
			err := runGroup(group, cfg.KernelTweaks, runner)
			utils.CheckErrorAndExit(err, "Group %s", group.Name)
		}
	},
}

func runGroup(group *model.InterfaceGroup, tweaks []model.KernelTweak, runner *executor.Executor) error {
	store, err := state.Open(opts.stateFile)
	if err != nil {
		return err
	}

	g, err := service.NewGroup(service.Options{
		Group:        group,
		KernelTweaks: tweaks,
		Force:        opts.force,
	}, store, runner, service.NetlinkProber{})
	if err != nil {
		return err
	}

	if opts.setup {
		err = g.Setup()
	} else if opts.teardown {
		err = g.Teardown()
	}
	if err != nil {
		return err
	}

	if opts.output {
		if _, err := g.ProcessIRQs(irq.ModeReport); err != nil {
			return err
		}
		if _, err := g.ProcessIRQs(irq.ModeShowExisting); err != nil {
			return err
		}
	}

	if opts.irq && !opts.teardown {
		if _, err := g.ProcessIRQs(irq.ModeApply); err != nil {
			return err
		}
	}
	return nil
}

func setupLogging(verbose bool, logFile string) {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}

	if logFile != "" {
		logrus.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    100,
			MaxBackups: 10,
			MaxAge:     60,
			Compress:   true,
		}))
	}
}

func bindFlags(fs, pfs *pflag.FlagSet) {
	pfs.BoolVarP(&opts.verbose, "verbose", "v", false, "Increase verbosity")
	pfs.StringVarP(&opts.yaml, "yaml", "y", "delay.yml", "YAML config file")
	pfs.StringVarP(&opts.stateFile, "state", "a", ".delay_state.json", "Delay state file, no need to edit manually")
	pfs.StringVarP(&opts.delay, "delay", "d", config.DefaultDelay, "Delay value (as used by tc) for groups without one")
	pfs.StringVar(&opts.logFile, "log-file", "", "Also write logs to this rotated file")

	fs.BoolVarP(&opts.show, "show", "s", false, "Show information only, do not execute")
	fs.BoolVarP(&opts.force, "force", "f", false, "Force operation")
	fs.BoolVarP(&opts.irq, "irq", "i", false, "Configure static IRQ values")
	fs.BoolVarP(&opts.output, "output", "o", false, "Output proposed and existing IRQ values")
	fs.BoolVarP(&opts.setup, "setup", "c", false, "Run setup")
	fs.BoolVarP(&opts.teardown, "teardown", "t", false, "Teardown setup (rebooting will do the same)")
	fs.BoolVarP(&opts.version, "version", "V", false, "Print version")
}

func main() {
	cobra.EnableTraverseRunHooks = true
	bindFlags(rootCmd.Flags(), rootCmd.PersistentFlags())
	rootCmd.MarkFlagsMutuallyExclusive("setup", "teardown")
	rootCmd.AddCommand(statusCmd)
	util.DisableSortFlags(rootCmd, statusCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
