package isa

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ReadMachineCode parses the §6 machine-code file format: one 32-bit
// instruction per line, lowercase hex, 8 digits, no "0x" prefix. Blank
// lines are skipped.
func ReadMachineCode(r io.Reader) ([]uint32, error) {
	var words []uint32
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		// hexutil rejects leading zero digits, which the fixed-width
		// format always has, so strip them before decoding.
		digits := strings.TrimLeft(line, "0")
		if digits == "" {
			digits = "0"
		}
		v, err := hexutil.DecodeUint64("0x" + digits)
		if err != nil {
			return nil, fmt.Errorf("machine code line %d: %q: %w", lineNo, line, err)
		}
		words = append(words, uint32(v))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return words, nil
}

// WriteMachineCode renders words in the §6 machine-code file format.
// hexutil.EncodeUint64 trims leading zeros, which this format forbids, so
// the fixed-width 8-digit rendering is done directly.
func WriteMachineCode(w io.Writer, words []uint32) error {
	for _, word := range words {
		if _, err := fmt.Fprintf(w, "%08x\n", word); err != nil {
			return err
		}
	}
	return nil
}
