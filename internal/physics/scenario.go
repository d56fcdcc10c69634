package physics

// ScenarioSource supplies the point masses for a scenario index. Unknown
// indices return an empty set.
type ScenarioSource interface {
	Scenario(index int) []PointMass
}

// ScenarioBook steps an assembly through a bounded range of scenarios.
type ScenarioBook struct {
	src   ScenarioSource
	asm   *Assembly
	index int
	first int
	last  int
}

func NewScenarioBook(src ScenarioSource, asm *Assembly, first, last int) *ScenarioBook {
	return &ScenarioBook{src: src, asm: asm, index: first, first: first, last: last}
}

// Load reloads the assembly with scenario index, whether or not it is inside
// the book's range.
func (b *ScenarioBook) Load(index int) {
	b.index = index
	b.asm.LoadScenario(b.src.Scenario(index))
}

// Next advances to the following scenario. It reports false at the end.
func (b *ScenarioBook) Next() bool {
	if b.index >= b.last {
		return false
	}
	b.Load(b.index + 1)
	return true
}

// Prev goes back one scenario. It reports false at the start.
func (b *ScenarioBook) Prev() bool {
	if b.index <= b.first {
		return false
	}
	b.Load(b.index - 1)
	return true
}

func (b *ScenarioBook) Index() int { return b.index }

// Objective names the exercise for the currently loaded mass layout.
func (b *ScenarioBook) Objective() string {
	return Objective(len(b.asm.masses))
}

func Objective(massCount int) string {
	switch massCount {
	case 2:
		return "balance symmetric masses"
	case 4:
		return "maximize moment of inertia"
	case 3:
		return "compensate mass imbalance"
	default:
		return "adjust mass distribution"
	}
}
