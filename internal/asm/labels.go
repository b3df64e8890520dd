package asm

// Labels is a bidirectional label table: label name <-> PC, plus a flag
// distinguishing a standalone "LABEL:" definition line from a PC that was
// only ever referenced as a branch/jump target. The distinction exists
// purely so the disassembler can tell which PCs get a "LABEL:" line of
// their own when it regenerates source.
type Labels struct {
	byPC         map[uint32]string
	byName       map[string]uint32
	isDefinition map[uint32]bool
}

// NewLabels returns an empty label table.
func NewLabels() *Labels {
	return &Labels{
		byPC:         make(map[uint32]string),
		byName:       make(map[string]uint32),
		isDefinition: make(map[uint32]bool),
	}
}

// Set records name at pc. definition is true only for an actual "name:"
// source line; passing false never clears a definition flag already set
// for this pc.
func (l *Labels) Set(pc uint32, name string, definition bool) {
	l.byPC[pc] = name
	l.byName[name] = pc
	if definition {
		l.isDefinition[pc] = true
	}
}

// Label returns the name at pc. If requireDefinition is true, a PC that
// was only ever referenced (never defined) reports ok=false.
func (l *Labels) Label(pc uint32, requireDefinition bool) (name string, ok bool) {
	name, present := l.byPC[pc]
	if !present {
		return "", false
	}
	if requireDefinition && !l.isDefinition[pc] {
		return "", false
	}
	return name, true
}

// ProgramCounter resolves a label name to its PC.
func (l *Labels) ProgramCounter(name string) (uint32, bool) {
	pc, ok := l.byName[name]
	return pc, ok
}

// IsName reports whether name has been recorded as a label.
func (l *Labels) IsName(name string) bool {
	_, ok := l.byName[name]
	return ok
}

// IsAt reports whether any label (definition or reference) is recorded at pc.
func (l *Labels) IsAt(pc uint32) bool {
	_, ok := l.byPC[pc]
	return ok
}

// All returns the pc -> name map. Callers must not mutate it.
func (l *Labels) All() map[uint32]string {
	return l.byPC
}

func (l *Labels) clear() {
	l.byPC = make(map[uint32]string)
	l.byName = make(map[string]uint32)
	l.isDefinition = make(map[uint32]bool)
}
