package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/scorecard/internal/catalog"
	"github.com/verte-zerg/scorecard/internal/model"
	"github.com/verte-zerg/scorecard/internal/scorecard"
	"github.com/verte-zerg/scorecard/internal/stats"
)

const (
	defaultCurveWindow = 5
	fallbackWidth      = 80
)

var (
	roundsDistance int
	bowsCategory   string

	historyRound       string
	historyLast        int
	historyCurveWindow int

	exportOut string
	clearYes  bool
)

func newRoundsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rounds",
		Short: "List round types",
		Args:  cobra.NoArgs,
		RunE:  runRoundsCmd,
	}
	cmd.Flags().IntVar(&roundsDistance, "distance", 0, "only rounds shot at this distance (m)")
	return cmd
}

func runRoundsCmd(cmd *cobra.Command, _ []string) error {
	rounds := catalog.Rounds()
	if roundsDistance > 0 {
		rounds = catalog.RoundsByDistance(roundsDistance)
	}
	if len(rounds) == 0 {
		return fmt.Errorf("no rounds at %dm", roundsDistance)
	}
	return writeLines(cmd.OutOrStdout(), roundLines(rounds))
}

func roundLines(rounds []model.RoundType) []string {
	headers := []string{"ID", "Name", "Distance", "Face", "Format", "Max", "Overrides"}
	rows := make([][]string, 0, len(rounds))
	for _, rt := range rounds {
		overrides := "-"
		if rt.IsConfigurable() {
			overrides = fmt.Sprintf("arrows %d-%d, ends %d-%d",
				rt.Overrides.Arrows.Min, rt.Overrides.Arrows.Max, rt.Overrides.Ends.Min, rt.Overrides.Ends.Max)
		}
		rows = append(rows, []string{
			rt.ID,
			rt.Name,
			fmt.Sprintf("%dm", rt.Distance),
			fmt.Sprintf("%dcm", rt.TargetFace.Size),
			fmt.Sprintf("%dx%d", rt.TotalEnds, rt.ArrowsPerEnd),
			strconv.Itoa(rt.MaxScore),
			overrides,
		})
	}
	return stats.FormatTable(headers, rows, map[int]bool{2: true, 3: true, 5: true})
}

func newBowsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bows",
		Short: "List bow types",
		Args:  cobra.NoArgs,
		RunE:  runBowsCmd,
	}
	cmd.Flags().StringVar(&bowsCategory, "category", "", "only bows in this category")
	return cmd
}

func runBowsCmd(cmd *cobra.Command, _ []string) error {
	bows := catalog.Bows()
	if bowsCategory != "" {
		bows = catalog.BowsByCategory(bowsCategory)
	}
	if len(bows) == 0 {
		return fmt.Errorf("no bows in category %q", bowsCategory)
	}
	rows := make([][]string, 0, len(bows))
	for _, b := range bows {
		rows = append(rows, []string{b.ID, b.Name, b.Category, b.Description})
	}
	return writeLines(cmd.OutOrStdout(), stats.FormatTable([]string{"ID", "Name", "Category", "Description"}, rows, nil))
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show completed sessions",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVar(&historyRound, "round", "", "round id filter")
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&historyCurveWindow, "curve-window", defaultCurveWindow, "moving average window for the trend")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	if historyLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	a, err := openCommandApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	report := stats.BuildReport(a.ctrl.Sessions(), model.HistoryConfig{
		RoundID:     historyRound,
		Last:        historyLast,
		CurveWindow: historyCurveWindow,
	})
	out := cmd.OutOrStdout()
	if err := stats.RenderHistory(out, report.Newest()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if len(report.Sessions) == 0 {
		return nil
	}
	if err := stats.RenderSummary(out, report.Summary); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := stats.RenderTrend(out, report.Trend, terminalWidth()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return fallbackWidth
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		return fallbackWidth
	}
	return width
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export history as JSON",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default: stdout)")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	a, err := openCommandApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if exportOut == "" || exportOut == "-" {
		return a.ctrl.WriteExport(cmd.OutOrStdout())
	}
	f, err := os.Create(exportOut)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := a.ctrl.WriteExport(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close export file: %w", err)
	}
	logErrf("Exported %d sessions to %s\n", len(a.ctrl.Sessions()), exportOut)
	return nil
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Append sessions from an export file (- for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE:  runImportCmd,
	}
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	var r io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open import file: %w", err)
		}
		defer func() {
			// Best-effort close of a read-only file.
			_ = f.Close()
		}()
		r = f
	}

	a, err := openCommandApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.ctrl.Import(context.Background(), r)
	if err != nil {
		if scorecard.IsValidation(err) {
			return err
		}
		return fmt.Errorf("imported %d sessions but saving failed: %w", n, err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d sessions (%d total)\n", n, len(a.ctrl.Sessions()))
	return err
}

func newClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all stored sessions",
		Args:  cobra.NoArgs,
		RunE:  runClearCmd,
	}
	cmd.Flags().BoolVar(&clearYes, "yes", false, "confirm without prompting")
	return cmd
}

func runClearCmd(cmd *cobra.Command, _ []string) error {
	confirmed := clearYes
	if !confirmed && term.IsTerminal(int(os.Stdin.Fd())) {
		var err error
		confirmed, err = confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), "Delete all sessions? Type 'yes' to confirm: ")
		if err != nil {
			return err
		}
	}

	a, err := openCommandApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.ctrl.ClearAll(context.Background(), confirmed); err != nil {
		if errors.Is(err, scorecard.ErrNotConfirmed) {
			return fmt.Errorf("%w: pass --yes", err)
		}
		return fmt.Errorf("failed to clear data: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), "All data cleared.")
	return err
}

func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	if _, err := fmt.Fprint(out, prompt); err != nil {
		return false, err
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	return strings.EqualFold(strings.TrimSpace(line), "yes"), nil
}

func openCommandApp(cmd *cobra.Command) (*app, error) {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return nil, err
	}
	return openApp(context.Background(), cmd, fileCfg, false)
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}
