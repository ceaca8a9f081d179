package domain

type RecordKind string

const (
	KindEHCAssessment RecordKind = "ehc_assessment"
)

// ValidRecordKinds is the canonical set of accepted record kinds.
var ValidRecordKinds = map[RecordKind]bool{
	KindEHCAssessment: true,
}

func (k RecordKind) IsValid() bool { return ValidRecordKinds[k] }

// Label returns the human-readable name of the record kind.
func (k RecordKind) Label() string {
	switch k {
	case KindEHCAssessment:
		return "EHC Assessment Report"
	default:
		return string(k)
	}
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ResponseMode string

const (
	ModeSimple ResponseMode = "simple"
	ModeDual   ResponseMode = "dual"
)

// Composition selects how the dual-pass composer merges its two passes.
type Composition string

const (
	ComposeCarry      Composition = "carry"
	ComposeConcat     Composition = "concat"
	ComposeStructured Composition = "structured"
)

// ParseResponseMode maps user input to a ResponseMode, defaulting to simple.
func ParseResponseMode(s string) (ResponseMode, bool) {
	switch ResponseMode(s) {
	case ModeSimple, "":
		return ModeSimple, true
	case ModeDual:
		return ModeDual, true
	default:
		return ModeSimple, false
	}
}

// ParseComposition maps user input to a Composition, defaulting to carry.
func ParseComposition(s string) (Composition, bool) {
	switch Composition(s) {
	case ComposeCarry, "":
		return ComposeCarry, true
	case ComposeConcat:
		return ComposeConcat, true
	case ComposeStructured:
		return ComposeStructured, true
	default:
		return ComposeCarry, false
	}
}
