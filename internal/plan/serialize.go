package plan

// Node is the structural, round-trippable serialization of a Step:
// nested groups become a nested "steps" array, the current-pointer
// marker becomes Current, and the step's input/output attributes are
// spread as sibling fields alongside Name (spec.md §4.4, §6).
type Node struct {
	Name    string         `json:"name"`
	Current bool           `json:"current,omitempty"`
	Input   map[string]any `json:"input,omitempty"`
	Output  map[string]any `json:"output,omitempty"`
	Steps   []*Node        `json:"steps,omitempty"`
}

// ToObject renders the plan's step list as a nested Node tree: a
// BeginGroup step opens a nesting level that subsequent steps append
// into, and each unit of a step's EndGroup pops one level back up.
func (p *Plan) ToObject() []*Node {
	var top []*Node
	var stack []*Node // open parents, innermost last

	for s := p.start.Next; s != nil; s = s.Next {
		node := &Node{
			Name:    s.Name,
			Current: s == p.current,
			Input:   s.Attributes.Input,
			Output:  s.Attributes.Output,
		}

		if len(stack) == 0 {
			top = append(top, node)
		} else {
			parent := stack[len(stack)-1]
			parent.Steps = append(parent.Steps, node)
		}

		if s.BeginGroup {
			stack = append(stack, node)
		}
		for i := 0; i < s.EndGroup && len(stack) > 0; i++ {
			stack = stack[:len(stack)-1]
		}
	}

	return top
}

// FromObject reconstructs a Plan from the Node tree produced by
// ToObject, preserving step order, group nesting (BeginGroup/EndGroup
// counters), and the current-position marker. The reconstructed
// plan's state is StateInProgress if some step is marked current,
// otherwise StateSucceeded with a nil current (the whole step list has
// been consumed); callers needing a fresh, unstarted plan should use
// New instead.
func FromObject(nodes []*Node, maxSteps int) (*Plan, error) {
	p := New(maxSteps)
	var currentStep *Step

	if _, err := appendNodes(p, nodes, &currentStep); err != nil {
		return nil, err
	}

	if currentStep != nil {
		p.current = currentStep
		p.state = StateInProgress
	} else {
		p.current = nil
		p.state = StateSucceeded
	}

	return p, nil
}

// appendNodes flattens nodes onto the plan's tail, returning the last
// step actually appended (possibly deep inside a nested group) so the
// caller can close its own enclosing group on it.
func appendNodes(p *Plan, nodes []*Node, currentStep **Step) (*Step, error) {
	var last *Step
	for _, n := range nodes {
		step, err := p.appendTail(n.Name, Attributes{Input: n.Input, Output: n.Output})
		if err != nil {
			return nil, err
		}
		if n.Current {
			*currentStep = step
		}
		last = step

		if len(n.Steps) > 0 {
			step.BeginGroup = true
			innerLast, err := appendNodes(p, n.Steps, currentStep)
			if err != nil {
				return nil, err
			}
			innerLast.EndGroup++
			last = innerLast
		}
	}
	return last, nil
}

// appendTail appends a step to the physical end of the flat list,
// independent of the current/groupTail cursors Add uses — FromObject
// reconstructs the exact flat representation ToObject produced.
func (p *Plan) appendTail(name string, attrs Attributes) (*Step, error) {
	if p.count+1 > p.maxSteps {
		return nil, &ErrTooManySteps{Name: name, Count: p.count + 1, Max: p.maxSteps}
	}
	tail := p.start
	for tail.Next != nil {
		tail = tail.Next
	}
	step := &Step{Name: name, Attributes: attrs}
	tail.Next = step
	p.count++
	return step, nil
}
