// Package cmd command line
package cmd

import (
	"context"
	"fmt"
	"os"

	errors "github.com/Laisky/errors/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	"github.com/Laisky/zap"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Laisky/nicosearch/cmd/tui"
	"github.com/Laisky/nicosearch/library/log"
)

var tuiCMD = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI",
	Long: `Launch an interactive Terminal User Interface (TUI) for niconico searches.

The TUI offers a menu-driven interface for:
  • Contents search by keyword
  • Tags search
  • Related search (contents and tags together)

Example:
  nicosearch tui --issuer my-app --reason my-contest

Keyboard shortcuts:
  ↑/↓ or j/k  Navigate menu items
  Enter       Select / Search
  Tab         Next input field
  Esc         Go back
  q           Quit`,
	Args: gcmd.NoExtraArgs,
	PreRun: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		if err := initialize(ctx, cmd); err != nil {
			log.Logger.Panic("init", zap.Error(err))
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		if err := runTUI(); err != nil {
			fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCMD.AddCommand(tuiCMD)
}

// runTUI starts the interactive Terminal User Interface and returns any start/run error.
func runTUI() error {
	svc, err := newSearchService(nil)
	if err != nil {
		return errors.Wrap(err, "new search service")
	}

	p := tea.NewProgram(
		tui.NewModel(svc),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	_, err = p.Run()
	return errors.WithStack(err)
}
