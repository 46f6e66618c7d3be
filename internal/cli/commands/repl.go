package commands

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/fuzzrule/internal/cli/output"
	"github.com/leapstack-labs/fuzzrule/internal/engine"
	"github.com/leapstack-labs/fuzzrule/internal/facts"
	"github.com/leapstack-labs/fuzzrule/internal/state"
	"github.com/spf13/cobra"
)

const replPrompt = "fuzzrule> "

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl [file]",
		Short: "Ground and execute a program interactively",
		Long: `Load a program and explore it interactively.

Weights carry over between executions, exactly as they do when a program
is embedded; use reset to clear them.`,
		Example: `  fuzzrule repl pump.fz
  fuzzrule> ground water 10
  fuzzrule> execute
  fuzzrule> show`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL(cmd, args)
		},
	}
	return cmd
}

func runREPL(cmd *cobra.Command, args []string) error {
	cmdCtx, cleanup := NewCommandContext(cmd)
	defer cleanup()

	path, err := programPath(cmdCtx.Cfg, args)
	if err != nil {
		return err
	}

	// REPL output is always human-readable
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.ModeText)
	sess := &replSession{eng: cmdCtx.Engine, r: r}
	if err := sess.load(path); err != nil {
		return err
	}
	f, err := collectFacts(cmdCtx.Cfg, nil)
	if err != nil {
		return err
	}
	if err := sess.ground(f); err != nil {
		return err
	}

	historyFile := ""
	if cmdCtx.Cfg.StatePath != "" && cmdCtx.Cfg.StatePath != state.MemoryPath {
		historyFile = filepath.Join(filepath.Dir(cmdCtx.Cfg.StatePath), "repl_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    sess.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	r.Printf("fuzzrule REPL (%s)\n", path)
	r.Println("Type help for commands, quit to exit")
	r.Println()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if sess.handle(line) {
			return nil
		}
		rl.SetPrompt(replPrompt)
	}
}

// replSession holds the program under exploration.
type replSession struct {
	eng  *engine.Engine
	r    *output.Renderer
	prog *engine.Program
	path string
}

func (s *replSession) load(path string) error {
	prog, err := s.eng.Load(path)
	if err != nil {
		return err
	}
	s.prog = prog
	s.path = path
	return nil
}

func (s *replSession) ground(f facts.Facts) error {
	for _, name := range f.Names() {
		if err := s.prog.Domain.Ground(name, f[name]); err != nil {
			return err
		}
	}
	return nil
}

// handle runs one input line and reports whether the session should end.
func (s *replSession) handle(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch strings.ToLower(fields[0]) {
	case "quit", "exit":
		return true

	case "help":
		printREPLHelp(s.r.Writer())

	case "ground", "set":
		s.cmdGround(fields[1:])

	case "execute", "exec", "run":
		s.prog.Trace.Reset()
		result := s.prog.Domain.Execute()
		s.r.Printf("%s\n", output.FormatNumber(result))

	case "explain":
		res := &engine.RunResult{
			Program: s.path,
			Result:  s.prog.Domain.Result,
			Firings: s.prog.Trace.Firings,
			Results: s.prog.Trace.Results,
		}
		explainTables(s.r, res)

	case "show":
		s.cmdShow()

	case "reset":
		s.prog.Domain.ResetWeights()
		s.r.Success("weights cleared")

	case "load", "reload":
		path := s.path
		if len(fields) > 1 {
			path = fields[1]
		}
		if err := s.load(path); err != nil {
			s.r.Error(err.Error())
			return false
		}
		s.r.Success("loaded " + path)

	default:
		s.r.Error(fmt.Sprintf("unknown command: %s (type help for commands)", fields[0]))
	}
	return false
}

func (s *replSession) cmdGround(args []string) {
	var (
		name  string
		value float64
		err   error
	)
	switch len(args) {
	case 1:
		name, value, err = facts.ParseAssignment(args[0])
	case 2:
		name = args[0]
		value, err = strconv.ParseFloat(args[1], 64)
	default:
		err = fmt.Errorf("usage: ground <name> <value> or ground <name>=<value>")
	}
	if err == nil {
		err = s.prog.Domain.Ground(name, value)
	}
	if err != nil {
		s.r.Error(err.Error())
	}
}

func (s *replSession) cmdShow() {
	rows := [][]string{}
	for _, v := range s.prog.Model().Variables() {
		for _, set := range v.Sets() {
			rows = append(rows, []string{
				v.Name,
				output.FormatNumber(v.Ground()),
				set.Name(),
				fmt.Sprintf("%.4g", set.Fuzzify(v.Ground())),
				fmt.Sprintf("%.4g", set.Weight()),
			})
		}
	}
	s.r.Table([]string{"Variable", "Value", "Set", "Membership", "Weight"}, rows)
	s.r.Printf("result: %s\n", output.FormatNumber(s.prog.Domain.Result))
}

func (s *replSession) completer() *readline.PrefixCompleter {
	var names []readline.PrefixCompleterInterface
	for _, v := range s.prog.Model().Variables() {
		names = append(names, readline.PcItem(v.Name))
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("ground", names...),
		readline.PcItem("execute"),
		readline.PcItem("explain"),
		readline.PcItem("show"),
		readline.PcItem("reset"),
		readline.PcItem("load"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  ground <name> <value>  Set an input variable (also: ground name=value)
  execute                Run the executors and print the result
  explain                Show rule firings of the last execution
  show                   Show values, memberships and weights
  reset                  Clear all set weights
  load [file]            Recompile the program, or load another one
  help                   Show this help message
  quit / exit            Exit the REPL
`
	_, _ = fmt.Fprintln(w, help)
}
