package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/rv32sim/rv32sim/internal/asm"
	"github.com/rv32sim/rv32sim/internal/isa"
)

var assembleOutFlag = &cli.PathFlag{
	Name:  "out",
	Usage: "output machine-code file (defaults to stdout)",
}

var assembleCommand = &cli.Command{
	Name:  "assemble",
	Usage: "Assemble a source file into the §6 machine-code listing",
	Flags: []cli.Flag{sourceFlag, modeFlag, assembleOutFlag, runLogLevelFlag},
	Action: func(ctx *cli.Context) error {
		mode, err := resolveMode(ctx)
		if err != nil {
			return err
		}
		lines, err := readSourceLines(ctx.Path(sourceFlag.Name))
		if err != nil {
			return fmt.Errorf("reading source: %w", err)
		}

		l := newLogger(os.Stderr, levelFromString(ctx.String(runLogLevelFlag.Name)))
		a := asm.New(mode, l)
		res, err := a.Assemble(lines)
		if err != nil {
			return fmt.Errorf("assemble: %w", err)
		}

		out := os.Stdout
		if path := ctx.Path(assembleOutFlag.Name); path != "" {
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("creating output: %w", err)
			}
			defer f.Close()
			out = f
		}
		return isa.WriteMachineCode(out, res.Code)
	},
}
