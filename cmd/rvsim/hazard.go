package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/rv32sim/rv32sim/internal/asm"
	"github.com/rv32sim/rv32sim/internal/hazard"
)

var (
	hazardPipelineFlag = &cli.StringFlag{
		Name:  "pipeline",
		Usage: "3, 5, or 7 (pipeline depth)",
		Value: "5",
	}
	hazardForwardingFlag = &cli.BoolFlag{
		Name:  "forwarding",
		Usage: "model data forwarding",
		Value: true,
	}
	hazardCacheFlag = &cli.BoolFlag{
		Name:  "cache",
		Usage: "estimate a cache-miss hazard on every load/store",
	}
)

var hazardCommand = &cli.Command{
	Name:  "hazard",
	Usage: "Statically scan a source file for pipeline hazards",
	Flags: []cli.Flag{sourceFlag, modeFlag, hazardPipelineFlag, hazardForwardingFlag, hazardCacheFlag},
	Action: func(ctx *cli.Context) error {
		mode, err := resolveMode(ctx)
		if err != nil {
			return err
		}
		lines, err := readSourceLines(ctx.Path(sourceFlag.Name))
		if err != nil {
			return fmt.Errorf("reading source: %w", err)
		}

		a := asm.New(mode, nil)
		res, err := a.Assemble(lines)
		if err != nil {
			return fmt.Errorf("assemble: %w", err)
		}

		pipeline, err := parsePipeline(ctx.String(hazardPipelineFlag.Name))
		if err != nil {
			return err
		}

		cfg := hazard.Config{
			Pipeline:     pipeline,
			Forwarding:   ctx.Bool(hazardForwardingFlag.Name),
			CacheEnabled: ctx.Bool(hazardCacheFlag.Name),
		}
		hazards, stats := hazard.Analyze(res.Instructions, cfg)

		for _, h := range hazards {
			fmt.Println(h.String())
		}
		fmt.Print(stats.Report())
		return nil
	},
}

func parsePipeline(s string) (hazard.Pipeline, error) {
	switch s {
	case "3":
		return hazard.Pipeline3Stage, nil
	case "5":
		return hazard.Pipeline5Stage, nil
	case "7":
		return hazard.Pipeline7Stage, nil
	default:
		return 0, fmt.Errorf("invalid pipeline depth %q: want 3, 5, or 7", s)
	}
}
