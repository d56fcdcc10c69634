package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/physlab/internal/dynamo"
	"github.com/san-kum/physlab/internal/physics"
)

const (
	width           = 60
	height          = 20
	historyCapacity = 600
	trailCapacity   = 400

	// moveInterval is the time one key press holds a radial control down.
	moveInterval = 0.1
	fieldStep    = 0.1
	massStep     = 0.1
	viewSpan     = 24.0
)

// Kind selects the scene the live model draws.
type Kind int

const (
	KindCarousel Kind = iota
	KindLorentz
	KindProbe
)

func (k Kind) String() string {
	switch k {
	case KindCarousel:
		return "carousel"
	case KindLorentz:
		return "lorentz"
	case KindProbe:
		return "probe"
	}
	return "unknown"
}

// chartColumn is the state column plotted under the stats.
func (k Kind) chartColumn() string {
	switch k {
	case KindCarousel:
		return "omega_y"
	case KindLorentz:
		return "speed"
	}
	return "energy"
}

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model steps one lab system per frame and renders it with its controls.
type Model struct {
	kind Kind
	sys  dynamo.System

	asm     *physics.Assembly
	book    *physics.ScenarioBook
	lab     *physics.LorentzLab
	probe   *physics.Probe
	charges physics.ChargeSet
	grid    physics.GridSpec

	t, dt         float64
	width, height int
	canvas        *Canvas
	camera        *Camera
	trail         []mgl64.Vec3
	history       []float64
	paused        bool
	showHelp      bool
	status        string
}

func newModel(kind Kind, sys dynamo.System, dt float64) Model {
	return Model{
		kind:    kind,
		sys:     sys,
		dt:      dt,
		width:   width,
		height:  height,
		canvas:  NewCanvas(width, height),
		camera:  NewCamera(2.5 * physics.MaxRadius),
		trail:   make([]mgl64.Vec3, 0, trailCapacity),
		history: make([]float64, 0, historyCapacity),
	}
}

// NewCarouselModel drives a spinning assembly; book switches its scenarios.
func NewCarouselModel(asm *physics.Assembly, book *physics.ScenarioBook, dt float64) Model {
	m := newModel(KindCarousel, asm, dt)
	m.asm, m.book = asm, book
	if book != nil {
		m.status = book.Objective()
	}
	return m
}

func NewLorentzModel(lab *physics.LorentzLab, dt float64) Model {
	m := newModel(KindLorentz, lab, dt)
	m.lab = lab
	return m
}

// NewProbeModel drives a test charge; charges and grid are drawn as the
// field map behind it.
func NewProbeModel(probe *physics.Probe, charges physics.ChargeSet, grid physics.GridSpec, dt float64) Model {
	m := newModel(KindProbe, probe, dt)
	m.probe, m.charges, m.grid = probe, charges, grid
	return m
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Kind() Kind     { return m.kind }
func (m Model) Time() float64  { return m.t }
func (m Model) Paused() bool   { return m.paused }
func (m Model) Status() string { return m.status }

func (m Model) History() []float64 {
	out := make([]float64, len(m.history))
	copy(out, m.history)
	return out
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = max(20, min(width, msg.Width-52))
		m.height = max(10, min(height, msg.Height-4))
		m.canvas = NewCanvas(m.width, m.height)
	case tea.KeyMsg:
		key := msg.String()
		switch key {
		case "esc", "ctrl+c":
			return m, tea.Quit
		case "p":
			m.paused = !m.paused
		case "r":
			m.reset()
		case "?":
			m.showHelp = !m.showHelp
		case "t":
			NextTheme()
		default:
			switch m.kind {
			case KindCarousel:
				m.carouselKey(key)
			case KindLorentz:
				m.lorentzKey(key)
			case KindProbe:
				m.probeKey(key)
			}
		}
	case TickMsg:
		if !m.paused {
			m.step()
		}
		m.draw()
		return m, tick()
	}
	return m, nil
}

func (m *Model) carouselKey(key string) {
	switch key {
	case " ":
		m.asm.ToggleRotation()
	case "q":
		m.asm.SelectPrev()
	case "e":
		m.asm.SelectNext()
	case "a":
		m.asm.MoveSelected(-m.asm.RadialSpeed * moveInterval)
	case "d":
		m.asm.MoveSelected(m.asm.RadialSpeed * moveInterval)
	case "left", "right":
		if m.book == nil {
			return
		}
		moved := m.book.Prev
		if key == "right" {
			moved = m.book.Next
		}
		if moved() {
			m.clearBuffers()
		}
		m.status = m.book.Objective()
	case "up":
		m.camera.Orbit(0.1, 0)
	case "down":
		m.camera.Orbit(-0.1, 0)
	case "[":
		m.camera.Orbit(0, -0.1)
	case "]":
		m.camera.Orbit(0, 0.1)
	case "+", "=":
		m.camera.ZoomIn()
	case "-", "_":
		m.camera.ZoomOut()
	}
}

func (m *Model) lorentzKey(key string) {
	var err error
	switch key {
	case " ":
		m.paused = !m.paused
	case "+", "=":
		err = m.lab.SetField(roundStep(m.lab.BStrength + fieldStep))
	case "-", "_":
		err = m.lab.SetField(roundStep(m.lab.BStrength - fieldStep))
	case "c":
		err = m.lab.SetCharge(-m.lab.Particle.Charge)
	case "m":
		err = m.lab.SetMass(roundStep(m.lab.Particle.Mass - massStep))
	case "M":
		err = m.lab.SetMass(roundStep(m.lab.Particle.Mass + massStep))
	case "x":
		m.lab.UseElectricField = !m.lab.UseElectricField
	case "0":
		m.lab.ResetScore()
	default:
		return
	}
	m.setStatus(err)
}

func (m *Model) probeKey(key string) {
	var err error
	switch key {
	case " ":
		m.paused = !m.paused
	case "c":
		err = m.probe.SetParam("charge", -m.probe.Charge)
	case "m":
		err = m.probe.SetParam("mass", roundStep(m.probe.Mass-massStep))
	case "M":
		err = m.probe.SetParam("mass", roundStep(m.probe.Mass+massStep))
	default:
		return
	}
	m.setStatus(err)
}

func (m *Model) setStatus(err error) {
	if err != nil {
		m.status = err.Error()
		return
	}
	m.status = ""
}

// roundStep drops float noise below 1e-6 from a stepped control value.
func roundStep(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// step advances the system by one frame.
func (m *Model) step() {
	m.sys.Step(m.dt)
	m.t += m.dt

	state := m.sys.State()
	if i := dynamo.Index(m.sys.Labels(), m.kind.chartColumn()); i >= 0 {
		m.history = append(m.history, state[i])
		if len(m.history) > historyCapacity {
			m.history = m.history[1:]
		}
	}

	switch m.kind {
	case KindLorentz:
		m.pushTrail(m.lab.Particle.Position)
	case KindProbe:
		m.pushTrail(m.probe.Position)
	}
}

// Activate starts the carousel rotation if it is stopped. The particle labs
// are always live.
func (m *Model) Activate() {
	if m.kind == KindCarousel && !m.asm.IsRotating() {
		m.asm.ToggleRotation()
	}
}

// Advance steps the model until its clock reaches seconds and redraws the
// canvas, without a running program.
func (m *Model) Advance(seconds float64) {
	for m.t+m.dt/2 < seconds {
		m.step()
	}
	m.draw()
}

// Canvas is the most recently drawn frame.
func (m Model) Canvas() *Canvas { return m.canvas }

func (m *Model) pushTrail(p mgl64.Vec3) {
	m.trail = append(m.trail, p)
	if len(m.trail) > trailCapacity {
		m.trail = m.trail[1:]
	}
}

func (m *Model) clearBuffers() {
	m.t = 0
	m.trail = m.trail[:0]
	m.history = m.history[:0]
}

func (m *Model) reset() {
	m.sys.Reset()
	m.clearBuffers()
	m.status = ""
	if m.book != nil {
		m.status = m.book.Objective()
	}
}

// View renders the scene next to the stats panel.
func (m Model) View() string {
	st := stylesFor(CurrentTheme)
	m.draw()

	var s strings.Builder
	status := st.ok.Render("RUNNING")
	if m.paused {
		status = st.warn.Render("PAUSED")
	}
	s.WriteString(st.header.Render(strings.ToUpper(m.kind.String())) + "\n")
	s.WriteString(status + "\n\n")

	row := func(label, format string, args ...any) {
		s.WriteString(st.label.Render(label) + st.value.Render(fmt.Sprintf(format, args...)) + "\n")
	}
	row("Time", "%.2fs", m.t)

	switch m.kind {
	case KindCarousel:
		snap := m.asm.Snapshot()
		w, l := snap.AngularVelocity, snap.AngularMomentum
		rot := "stopped"
		if snap.Rotating {
			rot = "spinning"
		}
		row("Platform", "%s", rot)
		row("Omega", "(%.2f, %.2f, %.2f)", w.X(), w.Y(), w.Z())
		row("|L|", "%.3f", l.Len())
		row("Inertia", "%.1f %.1f %.1f", snap.Inertia.Ixx, snap.Inertia.Iyy, snap.Inertia.Izz)
		row("Tilt", "%.1f°", mgl64.RadToDeg(snap.Tilt))
		row("Energy", "%.2f", m.asm.Energy())
		if m.book != nil {
			row("Scenario", "%d", m.book.Index())
		}
		s.WriteString("\nMASSES\n")
		for i, pm := range m.asm.Masses() {
			bar := ProgressBar((pm.Radius()-physics.MinRadius)/(physics.MaxRadius-physics.MinRadius), 10)
			line := fmt.Sprintf("%d %s r=%.2f m=%.0f", i, bar, pm.Radius(), pm.Mass)
			if i == snap.Selected {
				s.WriteString(st.active.Render("> "+line) + "\n")
			} else {
				s.WriteString("  " + st.muted.Render(line) + "\n")
			}
		}
	case KindLorentz:
		d := m.lab.Diagnostics()
		row("Charge", "%+.1f", m.lab.Particle.Charge)
		row("Mass", "%.1f", m.lab.Particle.Mass)
		row("B", "%.1f", m.lab.BStrength)
		e := "off"
		if m.lab.UseElectricField {
			ef := m.lab.ElectricField
			e = fmt.Sprintf("(%.1f, %.1f, %.1f)", ef.X(), ef.Y(), ef.Z())
		}
		row("E", "%s", e)
		row("Speed", "%.3f", d.Speed)
		row("Energy", "%.3f", d.Energy)
		if math.IsInf(d.Radius, 1) {
			row("Radius", "∞")
		} else {
			row("Radius", "%.3f", d.Radius)
		}
		row("Period", "%.3f", d.Period)
		row("Score", "%d (%d left)", m.lab.Score(), len(m.lab.Targets()))
	case KindProbe:
		state := m.probe.State()
		row("Charge", "%+.1f", m.probe.Charge)
		row("Mass", "%.1f", m.probe.Mass)
		row("Position", "(%.2f, %.2f)", m.probe.Position.X(), m.probe.Position.Y())
		row("Speed", "%.3f", state[dynamo.Index(m.probe.Labels(), "speed")])
		row("Energy", "%.3f", m.probe.Energy())
		row("|E|", "%.3f", state[dynamo.Index(m.probe.Labels(), "field")])
	}

	if len(m.history) > 1 {
		chart := asciigraph.Plot(m.history, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption(m.kind.chartColumn()))
		s.WriteString(st.graph.Render(chart) + "\n")
	}
	if m.status != "" {
		s.WriteString("\n" + st.bad.Render(m.status) + "\n")
	}
	s.WriteString(st.help.Render(Separator(30) + "\n" + m.shortHelp()))

	main := lipgloss.JoinHorizontal(lipgloss.Top, st.canvas.Render(m.canvas.String()), st.stats.Render(s.String()))
	if m.showHelp {
		return st.help.Render(m.longHelp()) + "\n\n" + main
	}
	return main
}

func (m Model) shortHelp() string {
	switch m.kind {
	case KindCarousel:
		return "SP:Spin Q/E:Select A/D:Move\n←→:Scenario R:Reset ?:Help"
	case KindLorentz:
		return "SP:Pause +/-:Field C:Charge\nM/m:Mass X:E-field ?:Help"
	}
	return "SP:Pause C:Charge M/m:Mass\nR:Reset T:Theme ?:Help"
}

func (m Model) longHelp() string {
	common := []string{
		"Esc      - Quit",
		"P        - Pause/Resume",
		"R        - Reset",
		"T        - Cycle themes",
		"?        - Toggle this help",
	}
	var own []string
	switch m.kind {
	case KindCarousel:
		own = []string{
			"Space    - Start/stop rotation",
			"Q / E    - Select previous/next mass",
			"A / D    - Move selected mass in/out",
			"← / →    - Previous/next scenario",
			"↑ / ↓    - Tilt camera",
			"[ / ]    - Orbit camera",
			"+ / -    - Zoom",
		}
	case KindLorentz:
		own = []string{
			"Space    - Pause/Resume",
			"+ / -    - Magnetic field ±0.1",
			"C        - Flip charge sign",
			"M / m    - Mass ±0.1",
			"X        - Toggle electric field",
			"0        - Clear score",
		}
	case KindProbe:
		own = []string{
			"Space    - Pause/Resume",
			"C        - Flip probe charge",
			"M / m    - Probe mass ±0.1",
		}
	}
	return "KEYBOARD SHORTCUTS\n\n" + strings.Join(append(own, common...), "\n")
}

// draw renders the current scene into the canvas.
func (m *Model) draw() {
	m.canvas.Clear()
	switch m.kind {
	case KindCarousel:
		m.drawCarousel()
	case KindLorentz:
		m.drawLorentz()
	case KindProbe:
		m.drawProbe()
	}
}

func (m *Model) drawCarousel() {
	orient := m.asm.Orientation()
	wf := NewWireframe()

	rim := physics.MaxRadius + 0.3
	wf.Ring(rim, 24, orient)
	wf.AddEdge(orient.Rotate(mgl64.Vec3{0, -0.5, 0}), orient.Rotate(mgl64.Vec3{0, 1.5, 0}))

	for _, pm := range m.asm.Masses() {
		p := orient.Rotate(pm.Position)
		wf.AddEdge(mgl64.Vec3{}, p)
	}

	if l := m.asm.AngularMomentum(); l.Len() > 0 {
		wf.AddEdge(mgl64.Vec3{}, l.Normalize().Mul(2.5))
	}
	Render3D(m.canvas, wf, m.camera)

	sw, sh := m.canvas.Size()
	for i, pm := range m.asm.Masses() {
		x, y, _, ok := m.camera.Project(orient.Rotate(pm.Position), sw, sh)
		if !ok {
			continue
		}
		r := 1 + int(math.Sqrt(pm.Mass)/3)
		m.canvas.DrawCircle(x, y, r)
		if i == m.asm.Selected() {
			m.canvas.DrawCircle(x, y, r+2)
		}
	}
}

// toScreen maps a point in the z = 0 plane to canvas sub-pixels, with span
// world units across the shorter canvas side.
func (m *Model) toScreen(p mgl64.Vec3, span float64) (int, int) {
	sw, sh := m.canvas.Size()
	scale := float64(min(sw, sh)) / span
	return sw/2 + int(math.Round(p.X()*scale)), sh/2 - int(math.Round(p.Y()*scale))
}

func (m *Model) drawTrail(span float64) {
	for i := 1; i < len(m.trail); i++ {
		x0, y0 := m.toScreen(m.trail[i-1], span)
		x1, y1 := m.toScreen(m.trail[i], span)
		m.canvas.DrawLine(x0, y0, x1, y1)
	}
}

func (m *Model) drawLorentz() {
	sw, sh := m.canvas.Size()
	scale := float64(min(sw, sh)) / viewSpan

	for _, t := range m.lab.Targets() {
		x, y := m.toScreen(t.Position, viewSpan)
		m.canvas.DrawCircle(x, y, max(1, int(t.Radius*scale)))
	}
	m.drawTrail(viewSpan)

	x, y := m.toScreen(m.lab.Particle.Position, viewSpan)
	m.canvas.DrawCross(x, y, 2)
}

func (m *Model) drawProbe() {
	span := 2 * m.grid.HalfSize
	if span <= 0 {
		span = viewSpan
	}

	// Coarsen the sampling grid so arrows stay legible on a terminal.
	grid := m.grid
	grid.Step = max(grid.Step, span/14)
	for _, s := range physics.SampleGrid(m.charges, grid) {
		tip := s.Point.Add(s.Direction.Mul(0.4 * grid.Step))
		x0, y0 := m.toScreen(s.Point, span)
		x1, y1 := m.toScreen(tip, span)
		m.canvas.DrawLine(x0, y0, x1, y1)
	}

	for _, c := range m.charges {
		x, y := m.toScreen(c.Position, span)
		m.canvas.DrawCircle(x, y, 3)
		m.canvas.DrawLine(x-1, y, x+1, y)
		if c.Charge > 0 {
			m.canvas.DrawLine(x, y-1, x, y+1)
		}
	}

	m.drawTrail(span)
	x, y := m.toScreen(m.probe.Position, span)
	m.canvas.DrawCross(x, y, 2)
}
