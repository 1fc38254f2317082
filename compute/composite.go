package compute

import (
	"fmt"
	"slices"
	"sync"
)

// CommandsSequence runs its children one after the other. Child i+1 is
// submitted with the event of child i as its dependency, and the sequence
// event is the event of the last child.
type CommandsSequence struct {
	backend Backend

	mu       sync.Mutex
	commands []Command
}

// NewCommandsSequence returns a sequence holding cmds.
func NewCommandsSequence(b Backend, cmds ...Command) *CommandsSequence {
	s := &CommandsSequence{backend: b}
	for _, c := range cmds {
		s.PushBack(c)
	}
	return s
}

// Engine implements EngineObject.
func (s *CommandsSequence) Engine() Engine { return s.backend }

// PushBack appends cmd. Nested sequences are flattened.
func (s *CommandsSequence) PushBack(cmd Command) {
	if cmd == nil {
		return
	}
	if inner, ok := cmd.(*CommandsSequence); ok {
		for _, c := range inner.Commands() {
			s.PushBack(c)
		}
		return
	}
	s.mu.Lock()
	s.commands = append(s.commands, cmd)
	s.mu.Unlock()
}

// Commands returns a copy of the children.
func (s *CommandsSequence) Commands() []Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.commands)
}

// Len returns the number of children.
func (s *CommandsSequence) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.commands)
}

// Validate checks every child that implements Validator.
func (s *CommandsSequence) Validate() error {
	for i, c := range s.Commands() {
		if err := validate(c); err != nil {
			return fmt.Errorf("sequence command %d: %w", i, err)
		}
	}
	return nil
}

// Submit implements Command. Nothing is submitted if a child fails validation.
// An empty sequence submits a marker over deps.
func (s *CommandsSequence) Submit(queue CommandQueue, deps ...Event) (Event, error) {
	cmds := s.Commands()
	if len(cmds) == 0 {
		return s.backend.EnqueueMarker(queue, deps)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	var ev Event
	for i, c := range cmds {
		next, err := c.Submit(queue, deps...)
		if err != nil {
			return nil, fmt.Errorf("sequence command %d: %w", i, err)
		}
		ev = next
		deps = []Event{next}
	}
	return ev, nil
}

// CommandsParallel submits its children without ordering between them.
// Its event is a join over the children's events.
type CommandsParallel struct {
	backend Backend

	mu       sync.Mutex
	commands []Command
}

// NewCommandsParallel returns a parallel group holding cmds.
func NewCommandsParallel(b Backend, cmds ...Command) *CommandsParallel {
	p := &CommandsParallel{backend: b}
	for _, c := range cmds {
		p.Add(c)
	}
	return p
}

// Engine implements EngineObject.
func (p *CommandsParallel) Engine() Engine { return p.backend }

// Add appends cmd. Nested parallel groups are flattened.
func (p *CommandsParallel) Add(cmd Command) {
	if cmd == nil {
		return
	}
	if inner, ok := cmd.(*CommandsParallel); ok {
		for _, c := range inner.Commands() {
			p.Add(c)
		}
		return
	}
	p.mu.Lock()
	p.commands = append(p.commands, cmd)
	p.mu.Unlock()
}

// Commands returns a copy of the children.
func (p *CommandsParallel) Commands() []Command {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.commands)
}

// Len returns the number of children.
func (p *CommandsParallel) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.commands)
}

// Validate checks every child that implements Validator.
func (p *CommandsParallel) Validate() error {
	for i, c := range p.Commands() {
		if err := validate(c); err != nil {
			return fmt.Errorf("parallel command %d: %w", i, err)
		}
	}
	return nil
}

// Submit implements Command. Every child receives deps. With a single child
// its event is returned directly.
func (p *CommandsParallel) Submit(queue CommandQueue, deps ...Event) (Event, error) {
	cmds := p.Commands()
	if len(cmds) == 0 {
		return p.backend.EnqueueMarker(queue, deps)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(cmds))
	for i, c := range cmds {
		ev, err := c.Submit(queue, deps...)
		if err != nil {
			return nil, fmt.Errorf("parallel command %d: %w", i, err)
		}
		events = append(events, ev)
	}
	if len(events) == 1 {
		return events[0], nil
	}
	return p.backend.EnqueueMarker(queue, events)
}
