package main

import (
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/rv32sim/rv32sim/internal/isa"
)

var modeFlag = &cli.StringFlag{
	Name:  "mode",
	Usage: "ISA mode: RV32I, RV32IM, RV64I, RV64IM",
	Value: "RV32IM",
}

var sourceFlag = &cli.PathFlag{
	Name:     "source",
	Usage:    "path to assembly source file",
	Required: true,
}

func resolveMode(ctx *cli.Context) (isa.Mode, error) {
	return isa.ParseMode(strings.ToUpper(ctx.String(modeFlag.Name)))
}

// readSourceLines loads an assembly file as the line slice internal/asm
// expects, preserving blank lines so 1-based source-line numbers in
// breakpoints and diagnostics line up with the file on disk.
func readSourceLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines, nil
}
