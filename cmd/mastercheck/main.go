package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/pressline/mastercheck/internal/cli"
	"github.com/pressline/mastercheck/internal/logging"
	"github.com/pressline/mastercheck/internal/processor"
	"github.com/pressline/mastercheck/internal/ui"
)

var (
	version = "0.1.0"
)

// CLI defines the command-line interface
type CLI struct {
	Version bool   `short:"v" help:"Show version information"`
	Plain   bool   `help:"Disable the progress display (useful for scripts)"`
	Keep    bool   `short:"k" help:"Keep the intermediate AAC file for inspection"`
	File    string `arg:"" name:"file" help:"Stereo WAV master to check" type:"existingfile" optional:""`
}

// stageNames are the two external tool invocations, in pipeline order.
var stageNames = []string{"Converting to AAC intermediate", "Reading Sound Check analysis"}

func main() {
	// Optional .env with MASTERCHECK_AFCONVERT / MASTERCHECK_AFINFO overrides
	_ = godotenv.Load()

	cliArgs := &CLI{}
	ctx := kong.Parse(cliArgs,
		kong.Name("mastercheck"),
		kong.Description("Pre-mastering Sound Check quality report"),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	// Handle version flag
	if cliArgs.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	// Validate input
	if cliArgs.File == "" {
		cli.PrintError("No input file specified")
		ctx.PrintUsage(false)
		os.Exit(1)
	}

	if os.Geteuid() == 0 {
		cli.PrintError("Refusing to run as root")
		os.Exit(1)
	}

	var summary string
	var runErr error
	if cliArgs.Plain || !term.IsTerminal(int(os.Stdout.Fd())) {
		summary, runErr = runCheck(cliArgs.File, cliArgs.Keep, func(stage int, done bool) {})
	} else {
		summary, runErr = runCheckWithUI(cliArgs.File, cliArgs.Keep)
	}
	if runErr != nil {
		cli.PrintError(runErr.Error())
		os.Exit(1)
	}

	fmt.Print(summary)
}

// errAborted reports a progress display dismissed before the pipeline
// finished.
var errAborted = errors.New("check aborted before completion")

// runCheckWithUI runs the pipeline behind a Bubbletea stage display and
// returns once both the UI and the pipeline have finished.
func runCheckWithUI(input string, keep bool) (string, error) {
	model := ui.NewModel(filepath.Base(input), stageNames)
	p := tea.NewProgram(model)

	var summary string
	var runErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		summary, runErr = runCheck(input, keep, func(stage int, finished bool) {
			if finished {
				model.MsgChan <- ui.StageDoneMsg{Index: stage}
			} else {
				model.MsgChan <- ui.StageStartMsg{Index: stage}
			}
		})
		model.MsgChan <- ui.RunDoneMsg{Err: runErr}
	}()

	final, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("progress display failed: %w", err)
	}
	// Quitting the display mid-run abandons the pipeline; summary and
	// runErr may only be read once the goroutine has signalled done
	if m, ok := final.(ui.Model); !ok || !m.Done {
		return "", errAborted
	}
	<-done
	return summary, runErr
}

// runCheck is the whole pipeline for one master: stage the intermediate,
// run the toolchain, parse, validate, derive and render. The notify
// callback reports stage transitions for the progress display.
func runCheck(input string, keep bool, notify func(stage int, done bool)) (string, error) {
	ws, err := processor.NewWorkspace()
	if err != nil {
		return "", fmt.Errorf("creating workspace: %w", err)
	}
	if keep {
		defer fmt.Fprintf(os.Stderr, "Intermediate kept at %s\n", ws.IntermediatePath())
	} else {
		defer ws.Cleanup()
	}

	tc := processor.NewToolchain()

	notify(0, false)
	if err := tc.Convert(input, ws.IntermediatePath()); err != nil {
		return "", err
	}
	notify(0, true)

	notify(1, false)
	report, err := tc.Analyze(ws.IntermediatePath())
	if err != nil {
		return "", err
	}
	notify(1, true)

	info := processor.ParseReport(report)
	if err := info.VerifyStereo(); err != nil {
		return "", err
	}
	if err := info.AddDerivedMetrics(); err != nil {
		return "", err
	}

	return logging.RenderSummary(info, filepath.Base(input))
}
