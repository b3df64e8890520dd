package cpu

import "fmt"

// CallFrame is one shadow-stack entry: the function a jal/jalr call
// landed in, the source line currently executing within it, and the
// return address the matching jalr is expected to target.
type CallFrame struct {
	FunctionName  string
	SourceLine    int
	ReturnAddress uint32
}

func (f CallFrame) String() string {
	return fmt.Sprintf("  %s at line : %d Next Instruction 0x%08x\n", f.FunctionName, f.SourceLine, f.ReturnAddress)
}

// CallStack is the interpreter's shadow call stack: a side channel,
// distinct from the simulated memory stack, used purely to diagnose
// call/return mismatches on jalr.
type CallStack struct {
	frames []CallFrame
}

// Reset empties the call stack.
func (s *CallStack) Reset() {
	s.frames = nil
}

// PushFrame starts a new frame at pc, named funcName ("* main *" is the
// caller's convention for the entry frame when pc is 0 and no label names
// it).
func (s *CallStack) PushFrame(funcName string, sourceLine int, pc uint32) {
	s.frames = append(s.frames, CallFrame{FunctionName: funcName, SourceLine: sourceLine, ReturnAddress: pc})
}

// UpdateTopSourceLine records the source line currently executing within
// the top frame.
func (s *CallStack) UpdateTopSourceLine(sourceLine int) {
	if len(s.frames) == 0 {
		return
	}
	s.frames[len(s.frames)-1].SourceLine = sourceLine
}

// UpdateTopReturnAddress records the PC the top frame's eventual jalr
// return is expected to target.
func (s *CallStack) UpdateTopReturnAddress(pc uint32) {
	if len(s.frames) == 0 {
		return
	}
	s.frames[len(s.frames)-1].ReturnAddress = pc
}

// PopIfMatchingReturnAddress is called on a jalr-as-return (rd == x0) with
// the computed jump target as actual. When at least two frames exist it
// pops the top frame whether or not the caller's expected return address
// (the second-from-top frame's ReturnAddress) equals actual; matched
// reports whether they were equal and expected is returned either way so
// callers can log a mismatch warning. ok is false, and nothing is popped,
// when fewer than two frames exist.
func (s *CallStack) PopIfMatchingReturnAddress(actual uint32) (matched bool, expected uint32, ok bool) {
	if len(s.frames) < 2 {
		return false, 0, false
	}
	expected = s.frames[len(s.frames)-2].ReturnAddress
	s.frames = s.frames[:len(s.frames)-1]
	return expected == actual, expected, true
}

// Frames returns the stack oldest-to-newest. Callers must not mutate it.
func (s *CallStack) Frames() []CallFrame {
	return s.frames
}

// Report renders the stack oldest-to-newest as "#0 ...\n#1 ...".
func (s *CallStack) Report() string {
	out := "Call stack (oldest to newest):\n"
	for i, f := range s.frames {
		out += fmt.Sprintf("#%d %s", i, f)
	}
	return out
}
