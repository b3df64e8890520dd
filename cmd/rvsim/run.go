package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/pkg/profile"

	"github.com/rv32sim/rv32sim/internal/asm"
	"github.com/rv32sim/rv32sim/internal/cache"
	"github.com/rv32sim/rv32sim/internal/cpu"
	"github.com/rv32sim/rv32sim/internal/mem"
)

var (
	runCacheFlag = &cli.PathFlag{
		Name:  "cache-config",
		Usage: "path to a §6 cache configuration file; omit to run against flat memory",
	}
	runBreakpointsFlag = &cli.StringFlag{
		Name:  "breakpoints",
		Usage: "comma-separated source line numbers to break at before running",
	}
	runLogLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Usage: "trace, debug, info, warn, error",
		Value: "info",
	}
	runCPUProfileFlag = &cli.BoolFlag{
		Name:  "cpuprofile",
		Usage: "write a CPU profile of the run to ./cpu.pprof",
	}
	runDumpCacheFlag = &cli.BoolFlag{
		Name:  "dump-cache",
		Usage: "print the cache's final block contents after the run",
	}
)

var runCommand = &cli.Command{
	Name:  "run",
	Usage: "Assemble and execute a source file to completion",
	Flags: []cli.Flag{sourceFlag, modeFlag, runCacheFlag, runBreakpointsFlag, runLogLevelFlag, runCPUProfileFlag, runDumpCacheFlag},
	Action: func(ctx *cli.Context) error {
		if ctx.Bool(runCPUProfileFlag.Name) {
			defer profile.Start(profile.NoShutdownHook, profile.ProfilePath("."), profile.CPUProfile).Stop()
		}

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

		m := mem.New()
		var c *cache.Cache
		var backing cpu.Memory = m
		if cfgPath := ctx.Path(runCacheFlag.Name); cfgPath != "" {
			cfg, err := loadCacheConfig(cfgPath)
			if err != nil {
				return fmt.Errorf("cache config: %w", err)
			}
			c, err = cache.New(cfg, m, os.Stderr)
			if err != nil {
				return fmt.Errorf("building cache: %w", err)
			}
			backing = cpu.WrapCache(c)
		}

		in := cpu.New(mode, backing, l)
		in.Load(res)

		if bps := ctx.String(runBreakpointsFlag.Name); bps != "" {
			for _, tok := range strings.Split(bps, ",") {
				line, err := strconv.Atoi(strings.TrimSpace(tok))
				if err != nil {
					return fmt.Errorf("invalid breakpoint line %q: %w", tok, err)
				}
				if err := in.SetBreakpoint(line); err != nil {
					return fmt.Errorf("setting breakpoint at line %d: %w", line, err)
				}
			}
		}

		if err := in.Run(); err != nil {
			return fmt.Errorf("run: %w", err)
		}

		if c != nil && ctx.Bool(runDumpCacheFlag.Name) {
			c.Dump(os.Stdout)
		}
		return nil
	},
}

func loadCacheConfig(path string) (*cache.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		return cache.ParseConfig(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("cache config file %q has no configuration line", path)
}
