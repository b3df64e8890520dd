package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/rv32sim/rv32sim/internal/disasm"
	"github.com/rv32sim/rv32sim/internal/isa"
)

var disasmInFlag = &cli.PathFlag{
	Name:     "in",
	Usage:    "machine-code file to disassemble (§6 format)",
	Required: true,
}

var disasmABIFlag = &cli.BoolFlag{
	Name:  "abi-names",
	Usage: "print ABI register names (ra, sp, a0, ...) instead of x<N>",
}

var disasmCommand = &cli.Command{
	Name:  "disasm",
	Usage: "Disassemble a machine-code file back into assembly text",
	Flags: []cli.Flag{disasmInFlag, modeFlag, disasmABIFlag},
	Action: func(ctx *cli.Context) error {
		mode, err := resolveMode(ctx)
		if err != nil {
			return err
		}
		f, err := os.Open(ctx.Path(disasmInFlag.Name))
		if err != nil {
			return fmt.Errorf("opening machine code: %w", err)
		}
		defer f.Close()

		words, err := isa.ReadMachineCode(f)
		if err != nil {
			return fmt.Errorf("reading machine code: %w", err)
		}

		d := disasm.New(mode, nil)
		d.UseABINames = ctx.Bool(disasmABIFlag.Name)
		lines, err := d.Disassemble(words)
		if err != nil {
			return fmt.Errorf("disassemble: %w", err)
		}
		fmt.Println(disasm.Format(lines))
		return nil
	},
}
