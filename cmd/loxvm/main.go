// Command loxvm is the runnable shell around the compiler/VM core: a
// file runner, a compile-only checker, a disassembler, and a REPL. None
// of this package is part of the core's tested surface — it only calls
// into bytecode/compiler/vm, never the reverse.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/sirupsen/logrus"
	easy "github.com/t-tomalak/logrus-easy-formatter"
	"github.com/spf13/cobra"

	"loxvm/bytecode"
	"loxvm/compiler"
	"loxvm/internal/config"
	"loxvm/vm"
)

// Exit codes follow spec.md §6: a clean run is 0, a compile error is 65,
// a runtime error is 70.
const (
	exitOK      = 0
	exitCompile = 65
	exitRuntime = 70
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	logger := newLogger()

	root := &cobra.Command{
		Use:          "loxvm",
		Short:        "A bytecode compiler and VM for a small Lox core",
		SilenceUsage: true,
	}
	root.AddCommand(
		newRunCmd(logger),
		newCompileCmd(logger),
		newDisassembleCmd(logger),
		newREPLCmd(logger),
	)
	root.SetArgs(args)

	code := exitOK
	root.RunE = func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	}
	if err := root.Execute(); err != nil {
		if ce, ok := err.(cliError); ok {
			return ce.code
		}
		fmt.Fprintln(os.Stderr, err)
		return exitRuntime
	}
	return code
}

// cliError carries the exit code a subcommand wants main to return,
// since cobra itself only ever reports success/failure, not a code.
type cliError struct {
	code int
	err  error
}

func (e cliError) Error() string { return e.err.Error() }

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&easy.Formatter{
		LogFormat: "[%lvl%] %msg%\n",
	})
	cfg, err := config.Load()
	if err == nil && cfg.Trace {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

func newRunCmd(logger *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "run <file>",
		Short: "Compile and execute a source file",
		Long: heredoc.Doc(`
			run compiles the given file to a chunk and executes it against a
			fresh VM. It exits 0 on success, 65 if compilation failed, or 70
			if the program raised a runtime error.
		`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chunk, err := compileFile(args[0], logger)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return cliError{code: exitCompile, err: err}
			}
			if err := execute(chunk, logger, cmd.OutOrStdout()); err != nil {
				fmt.Fprintln(os.Stderr, err)
				return cliError{code: exitRuntime, err: err}
			}
			return nil
		},
	}
}

func newCompileCmd(logger *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "compile <file>",
		Short: "Compile a source file without executing it",
		Long: heredoc.Doc(`
			compile runs the compiler over the given file and reports every
			compile error it collects, without ever handing the result to
			the VM.
		`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := compileFile(args[0], logger); err != nil {
				fmt.Fprintln(os.Stderr, err)
				return cliError{code: exitCompile, err: err}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

func newDisassembleCmd(logger *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "disassemble <file>",
		Short: "Compile a source file and print its disassembly",
		Long: heredoc.Doc(`
			disassemble compiles the given file and prints one line per
			instruction: offset, source line, mnemonic, and operand.
		`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chunk, err := compileFile(args[0], logger)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return cliError{code: exitCompile, err: err}
			}
			fmt.Fprint(cmd.OutOrStdout(), bytecode.Disassemble(chunk, args[0]))
			return nil
		},
	}
}

func compileFile(path string, logger *logrus.Logger) (*bytecode.Chunk, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loxvm: reading %s: %w", path, err)
	}
	return compiler.New(string(source), logger).Compile()
}

func execute(chunk *bytecode.Chunk, logger *logrus.Logger, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loxvm: loading config: %w", err)
	}
	machine := vm.New(
		vm.WithLogger(logger),
		vm.WithTrace(cfg.Trace),
		vm.WithStackMax(cfg.StackMax),
		vm.WithStdout(out),
	)
	return machine.Run(chunk)
}
