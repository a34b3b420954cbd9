package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/rileyhilliard/ansimon/internal/config"
	"github.com/rileyhilliard/ansimon/internal/errors"
)

var initForce bool

// initCmd writes ~/.config/ansimon/config.yml through a short interactive
// form.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the ansimon config file interactively",
	Long: `Write ~/.config/ansimon/config.yml after prompting for the inventory
path, default SSH user, poll interval, and fork count.

Examples:
  ansimon init
  ansimon init --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return initCommand()
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
}

func initCommand() error {
	path := config.Path()
	if path == "" {
		return errors.New(errors.ErrConfig,
			"Cannot determine config location",
			"Set HOME and retry.")
	}

	if !initForce {
		if existing, err := config.Load(path); err == nil && fileExists(path) {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Config already exists at %s (inventory: %s)", path, existing.Inventory),
				"Re-run with --force to overwrite it.")
		}
	}

	cfg := config.Default()
	intervalStr := strconv.Itoa(cfg.Interval)
	forksStr := strconv.Itoa(cfg.Forks)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Inventory path").
				Description("Ansible inventory file, INI or YAML").
				Value(&cfg.Inventory),
			huh.NewInput().
				Title("Default SSH user").
				Description("Leave empty to use inventory or ssh_config values").
				Value(&cfg.User),
			huh.NewInput().
				Title("Poll interval (seconds)").
				Validate(validatePositiveInt).
				Value(&intervalStr),
			huh.NewInput().
				Title("Max concurrent probes").
				Validate(validatePositiveInt).
				Value(&forksStr),
		),
	)

	if err := form.Run(); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Setup cancelled",
			"Run 'ansimon init' again to finish.")
	}

	cfg.Interval, _ = strconv.Atoi(intervalStr)
	cfg.Forks, _ = strconv.Atoi(forksStr)

	if err := config.Write(cfg, path); err != nil {
		return err
	}

	fmt.Printf("Wrote %s\n", path)
	return nil
}

func validatePositiveInt(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fmt.Errorf("enter a positive number")
	}
	return nil
}
