// Package cli wires flags, config, inventory, poller, and the TUI together.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rileyhilliard/ansimon/internal/config"
	"github.com/rileyhilliard/ansimon/internal/errors"
	"github.com/rileyhilliard/ansimon/internal/inventory"
	"github.com/rileyhilliard/ansimon/internal/logger"
	"github.com/rileyhilliard/ansimon/internal/model"
	"github.com/rileyhilliard/ansimon/internal/monitor"
	"github.com/rileyhilliard/ansimon/internal/poller"
	"github.com/rileyhilliard/ansimon/internal/probe"
)

var log = logger.NewEnvLogger("[ansimon]")

// rootFlags holds the command-line values before merging with config.
type rootFlags struct {
	inventory  string
	limit      string
	user       string
	key        string
	port       int
	forks      int
	interval   int
	sshTimeout int
}

var flags rootFlags

// interrupted is set when the run ended on SIGINT/SIGTERM rather than a
// quit key, so Execute can exit 130.
var interrupted bool

var rootCmd = &cobra.Command{
	Use:   "ansimon",
	Short: "Terminal monitor for an Ansible inventory",
	Long: `Ansimon polls every host of an Ansible-style inventory over SSH and
renders live CPU, memory, disk, IO-wait, swap, and network metrics in a
sortable terminal table.

Only unprivileged read commands run on the remote hosts; nothing is
installed and nothing is written.

Examples:
  ansimon -i hosts.ini
  ansimon -i inventory.yml -l 'web,!w3'
  ansimon -i hosts.ini -u deploy -k ~/.ssh/id_ed25519 --interval 5`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&flags.inventory, "inventory", "i", "", "inventory file path (INI or YAML)")
	rootCmd.Flags().StringVarP(&flags.limit, "limit", "l", "", "limit to matching hosts (groups, globs, !exclusions)")
	rootCmd.Flags().StringVarP(&flags.user, "user", "u", "", "SSH user (overrides inventory)")
	rootCmd.Flags().StringVarP(&flags.key, "key", "k", "", "SSH private key path (overrides inventory)")
	rootCmd.Flags().IntVarP(&flags.port, "port", "p", 0, "SSH port (overrides inventory)")
	rootCmd.Flags().IntVarP(&flags.forks, "forks", "f", 0, "max concurrent SSH probes")
	rootCmd.Flags().IntVar(&flags.interval, "interval", 0, "poll interval in seconds")
	rootCmd.Flags().IntVar(&flags.sshTimeout, "ssh-timeout", 0, "ssh ConnectTimeout in seconds")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return errors.ExitCode(err)
	}
	if interrupted {
		return errors.ExitInterrupted
	}
	return errors.ExitOK
}

func run(cmd *cobra.Command) error {
	cfg, err := loadMergedConfig(cmd)
	if err != nil {
		return err
	}

	hosts, err := selectHosts(cfg.Inventory, flags.limit)
	if err != nil {
		return err
	}

	if cfg.Key != "" {
		if err := probe.ValidateKey(cfg.Key); err != nil {
			if err == probe.ErrKeyPassphrase {
				log.Warn("key %s is passphrase protected; relying on ssh-agent", cfg.Key)
			} else {
				return err
			}
		}
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New(errors.ErrConfig,
			"stdout is not a terminal",
			"Ansimon is interactive; run it in a terminal.")
	}
	if termenv.EnvNoColor() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	log.Info("monitoring %d host(s) from %s", len(hosts), cfg.Inventory)

	targets := make([]probe.Target, 0, len(hosts))
	overrides := probe.Overrides{User: cfg.User, KeyPath: cfg.Key, Port: cfg.Port}
	for _, h := range hosts {
		targets = append(targets, probe.ResolveTarget(h, overrides))
	}

	table := model.New(hosts)
	runner := probe.NewRunner(cfg.SSHTimeoutDuration(), logger.NewEnvLogger("[probe]"))
	p := poller.New(poller.Config{
		Interval: cfg.IntervalDuration(),
		Forks:    cfg.Forks,
	}, targets, table, runner, logger.NewEnvLogger("[poller]"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go p.Run(ctx)

	ui := monitor.New(table, p, monitor.Thresholds{
		Warning:  cfg.Thresholds.Warning,
		Critical: cfg.Thresholds.Critical,
	})

	prog := tea.NewProgram(ui, tea.WithAltScreen(), tea.WithContext(ctx))
	_, teaErr := prog.Run()

	if ctx.Err() != nil {
		interrupted = true
		stop()
		return nil
	}
	stop()
	if teaErr != nil {
		return errors.Wrap(teaErr, "terminal UI failed")
	}
	return nil
}

// loadMergedConfig loads file/env config and lays the changed flags on top.
func loadMergedConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load("")
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("inventory") {
		cfg.Inventory = flags.inventory
	}
	if cmd.Flags().Changed("user") {
		cfg.User = flags.user
	}
	if cmd.Flags().Changed("key") {
		cfg.Key = flags.key
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = flags.port
	}
	if cmd.Flags().Changed("forks") {
		cfg.Forks = flags.forks
	}
	if cmd.Flags().Changed("interval") {
		cfg.Interval = flags.interval
	}
	if cmd.Flags().Changed("ssh-timeout") {
		cfg.SSHTimeout = flags.sshTimeout
	}

	if cfg.Interval <= 0 {
		return nil, errors.New(errors.ErrConfig,
			"Interval must be positive",
			"Pass --interval with a value of 1 or higher.")
	}
	if cfg.Forks <= 0 {
		return nil, errors.New(errors.ErrConfig,
			"Forks must be positive",
			"Pass -f/--forks with a value of 1 or higher.")
	}

	return cfg, nil
}

// selectHosts loads the inventory and applies the limit expression.
func selectHosts(path, limit string) ([]*inventory.Host, error) {
	inv, err := inventory.Load(path)
	if err != nil {
		return nil, err
	}

	names := inventory.ApplyLimit(inv, limit)
	if len(names) == 0 {
		if limit != "" {
			return nil, errors.New(errors.ErrSelection,
				fmt.Sprintf("No hosts matched the limit %q", limit),
				"Check the pattern against the inventory's host and group names.")
		}
		return nil, errors.New(errors.ErrSelection,
			"Inventory contains no hosts",
			"Add hosts to "+path+" or point -i at another inventory.")
	}

	hosts := make([]*inventory.Host, 0, len(names))
	for _, name := range names {
		hosts = append(hosts, inv.Hosts[name])
	}
	return hosts, nil
}
