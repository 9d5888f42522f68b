package ir

import "errors"

//go:generate stringer -type=Opcode

// Opcode represents the kind of a single Brainfuck IR instruction.
type Opcode byte

// Viable list of supported instruction constants.
const (
	// Pointer and cell arithmetic.
	MOVE Opcode = 0x00
	ADD  Opcode = 0x01

	// Flow control.
	JUMPL Opcode = 0x02
	JUMPR Opcode = 0x03

	// I/O.
	WRITE Opcode = 0x04
	READ  Opcode = 0x05

	// Synthesized by the multiply-loop pass.
	ZEROADD Opcode = 0x06
)

var stringToOpcode = make(map[string]Opcode)

func init() {
	for op := MOVE; op <= ZEROADD; op++ {
		stringToOpcode[op.String()] = op
	}
}

// FromString converts string representation to an opcode itself.
func FromString(s string) (Opcode, error) {
	if op, ok := stringToOpcode[s]; ok {
		return op, nil
	}
	return 0, errors.New("invalid opcode")
}

// IsValid returns true if the opcode passed is valid (defined in the IR).
func IsValid(op Opcode) bool {
	return op <= ZEROADD
}
