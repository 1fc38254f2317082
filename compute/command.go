package compute

// CommandQueue identifies an in-order execution lane of an engine.
type CommandQueue struct {
	id int
}

// DefaultQueue is the lane with id 0. Every engine has it.
var DefaultQueue = CommandQueue{}

// NewCommandQueue returns the queue with the given id.
func NewCommandQueue(id int) CommandQueue { return CommandQueue{id: id} }

// ID returns the lane id.
func (q CommandQueue) ID() int { return q.id }

// Command is a unit of work that can be submitted to a queue.
//
// Submit never blocks on execution. The returned Event is satisfied once the
// work and all deps have completed.
type Command interface {
	EngineObject
	Submit(queue CommandQueue, deps ...Event) (Event, error)
}

// Validator is implemented by commands that can check their configuration
// before submission.
type Validator interface {
	Validate() error
}

// RaiseEventCommand produces an event satisfied once its dependencies are.
type RaiseEventCommand struct {
	backend Backend
}

// NewRaiseEventCommand returns a marker command for b.
func NewRaiseEventCommand(b Backend) *RaiseEventCommand {
	return &RaiseEventCommand{backend: b}
}

// Engine implements EngineObject.
func (c *RaiseEventCommand) Engine() Engine { return c.backend }

// Submit implements Command.
func (c *RaiseEventCommand) Submit(queue CommandQueue, deps ...Event) (Event, error) {
	return c.backend.EnqueueMarker(queue, deps)
}

func validate(cmd Command) error {
	if v, ok := cmd.(Validator); ok {
		return v.Validate()
	}
	return nil
}
