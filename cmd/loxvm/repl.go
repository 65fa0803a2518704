package main

import (
	"io"

	"github.com/chzyer/readline"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"loxvm/compiler"
	"loxvm/internal/config"
	"loxvm/vm"
)

func newREPLCmd(logger *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive read-compile-run loop",
		Long: `repl reads one line at a time, compiles it, and runs it against a
persistent VM and globals table — so a variable declared on one line
stays visible on the next.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL(logger, cmd.OutOrStdout())
		},
	}
}

func runREPL(logger *logrus.Logger, out io.Writer) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "loxvm> ",
		HistoryFile: "",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	machine := vm.New(
		vm.WithLogger(logger),
		vm.WithTrace(cfg.Trace),
		vm.WithStackMax(cfg.StackMax),
		vm.WithStdout(out),
	)

	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or readline.ErrInterrupt
			return nil
		}
		if line == "" {
			continue
		}

		chunk, err := compiler.New(line, logger).Compile()
		if err != nil {
			logger.Error(err)
			continue
		}
		if err := machine.Run(chunk); err != nil {
			logger.Error(err)
		}
	}
}
