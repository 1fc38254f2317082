package compute

// Direction declares how a binding exchanges data with the device.
type Direction uint8

const (
	// DirectionNone marks a binding whose role is not declared yet.
	DirectionNone Direction = 0
	// DirectionInput marks data copied to the device before execution.
	DirectionInput Direction = 1 << 0
	// DirectionOutput marks data copied back to the host after execution.
	DirectionOutput Direction = 1 << 1
	// DirectionInOut is both input and output.
	DirectionInOut = DirectionInput | DirectionOutput
)

// IsInput reports whether d includes the input role.
func (d Direction) IsInput() bool { return d&DirectionInput != 0 }

// IsOutput reports whether d includes the output role.
func (d Direction) IsOutput() bool { return d&DirectionOutput != 0 }

func (d Direction) String() string {
	switch d {
	case DirectionNone:
		return "none"
	case DirectionInput:
		return "input"
	case DirectionOutput:
		return "output"
	case DirectionInOut:
		return "inout"
	default:
		return "unknown"
	}
}
