package bt

// Sequence runs its children one at a time and fails on the first failure.
// An empty sequence succeeds.
type Sequence struct {
	Base
	index int
}

func NewSequence(name string, children ...Node) *Sequence {
	s := &Sequence{}
	s.Init(s, name)
	for _, c := range children {
		s.AddChild(c)
	}
	return s
}

func (s *Sequence) Spawn() {
	s.Base.Spawn()
	s.index = 0
	if len(s.children) > 0 {
		s.children[0].Spawn()
	}
}

func (s *Sequence) Process() Status {
	if len(s.children) == 0 {
		return StatusSuccess
	}
	switch st := s.children[s.index].Status(); {
	case st == StatusSuccess:
		if s.index == len(s.children)-1 {
			return StatusSuccess
		}
		s.index++
		s.children[s.index].Spawn()
		return StatusRunning
	case st.failed():
		return StatusFailure
	default:
		return StatusRunning
	}
}

// Selector runs its children one at a time and succeeds on the first
// success. An empty selector fails.
type Selector struct {
	Base
	index int
}

func NewSelector(name string, children ...Node) *Selector {
	s := &Selector{}
	s.Init(s, name)
	for _, c := range children {
		s.AddChild(c)
	}
	return s
}

func (s *Selector) Spawn() {
	s.Base.Spawn()
	s.index = 0
	if len(s.children) > 0 {
		s.children[0].Spawn()
	}
}

func (s *Selector) Process() Status {
	if len(s.children) == 0 {
		return StatusFailure
	}
	switch st := s.children[s.index].Status(); {
	case st == StatusSuccess:
		return StatusSuccess
	case st.failed():
		if s.index == len(s.children)-1 {
			return StatusFailure
		}
		s.index++
		s.children[s.index].Spawn()
		return StatusRunning
	default:
		return StatusRunning
	}
}

// ParallelSequence runs all children at once. It fails as soon as one
// fails and succeeds when all have succeeded.
type ParallelSequence struct {
	Base
}

func NewParallelSequence(name string, children ...Node) *ParallelSequence {
	p := &ParallelSequence{}
	p.Init(p, name)
	for _, c := range children {
		p.AddChild(c)
	}
	return p
}

func (p *ParallelSequence) Spawn() {
	p.Base.Spawn()
	for _, c := range p.children {
		c.Spawn()
	}
}

func (p *ParallelSequence) Process() Status {
	done := true
	for _, c := range p.children {
		switch st := c.Status(); {
		case st.failed():
			cancelRunning(p.children)
			return StatusFailure
		case st != StatusSuccess:
			done = false
		}
	}
	if done {
		return StatusSuccess
	}
	return StatusRunning
}

// ParallelSelector runs all children at once. It succeeds as soon as one
// succeeds and fails when all have failed.
type ParallelSelector struct {
	Base
}

func NewParallelSelector(name string, children ...Node) *ParallelSelector {
	p := &ParallelSelector{}
	p.Init(p, name)
	for _, c := range children {
		p.AddChild(c)
	}
	return p
}

func (p *ParallelSelector) Spawn() {
	p.Base.Spawn()
	for _, c := range p.children {
		c.Spawn()
	}
}

func (p *ParallelSelector) Process() Status {
	done := true
	for _, c := range p.children {
		switch st := c.Status(); {
		case st == StatusSuccess:
			cancelRunning(p.children)
			return StatusSuccess
		case !st.failed():
			done = false
		}
	}
	if done {
		return StatusFailure
	}
	return StatusRunning
}

func cancelRunning(children []Node) {
	for _, c := range children {
		if c.Status() == StatusRunning {
			cancel(c)
		}
	}
}
