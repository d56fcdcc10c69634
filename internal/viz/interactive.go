package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/physlab/internal/config"
	"github.com/san-kum/physlab/internal/experiment"
)

var modelInfo = map[string]string{
	"carousel": "angular momentum",
	"lorentz":  "cyclotron motion",
	"probe":    "electrostatic field",
}

// FromConfig builds the live model for cfg.Model.
func FromConfig(cfg *config.Config) (Model, error) {
	if err := cfg.Validate(); err != nil {
		return Model{}, err
	}
	switch cfg.Model {
	case "carousel":
		asm, book := experiment.NewCarousel(cfg)
		return NewCarouselModel(asm, book, cfg.Dt), nil
	case "lorentz":
		lab, err := experiment.NewLorentzLab(cfg)
		if err != nil {
			return Model{}, err
		}
		return NewLorentzModel(lab, cfg.Dt), nil
	case "probe":
		probe, err := experiment.NewProbe(cfg)
		if err != nil {
			return Model{}, err
		}
		return NewProbeModel(probe, cfg.Field.ChargeSet(), cfg.Field.Grid.Spec(), cfg.Dt), nil
	}
	return Model{}, fmt.Errorf("no live view for %q", cfg.Model)
}

// RunLive opens the live view for cfg in the alternate screen.
func RunLive(cfg *config.Config) error {
	m, err := FromConfig(cfg)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

const (
	stateMenu = iota
	statePreset
	stateConfig
	stateSim
)

// param is one editable config field on the setup screen.
type param struct {
	name string
	get  func(*config.Config) float64
	set  func(*config.Config, float64)
}

var modelParams = map[string][]param{
	"carousel": {
		{"spin_rate", func(c *config.Config) float64 { return c.Assembly.SpinRate }, func(c *config.Config, v float64) { c.Assembly.SpinRate = v }},
		{"base_inertia", func(c *config.Config) float64 { return c.Assembly.BaseInertia }, func(c *config.Config, v float64) { c.Assembly.BaseInertia = v }},
		{"radial_speed", func(c *config.Config) float64 { return c.Assembly.RadialSpeed }, func(c *config.Config, v float64) { c.Assembly.RadialSpeed = v }},
	},
	"lorentz": {
		{"charge", func(c *config.Config) float64 { return c.Particle.Charge }, func(c *config.Config, v float64) { c.Particle.Charge = v }},
		{"field", func(c *config.Config) float64 { return c.Particle.BField }, func(c *config.Config, v float64) { c.Particle.BField = v }},
		{"mass", func(c *config.Config) float64 { return c.Particle.Mass }, func(c *config.Config, v float64) { c.Particle.Mass = v }},
	},
	"probe": {
		{"charge", func(c *config.Config) float64 { return c.Probe.Charge }, func(c *config.Config, v float64) { c.Probe.Charge = v }},
		{"mass", func(c *config.Config) float64 { return c.Probe.Mass }, func(c *config.Config, v float64) { c.Probe.Mass = v }},
	},
}

var dtParam = param{"dt", func(c *config.Config) float64 { return c.Dt }, func(c *config.Config, v float64) { c.Dt = v }}

type app struct {
	state, cursor int
	models        []string
	selected      string
	presets       []string
	cfg           *config.Config
	params        []param
	paramCursor   int
	editing       bool
	editBuf       string
	err           error
	width, height int
	liveModel     Model
}

// NewInteractiveApp starts at the model menu.
func NewInteractiveApp() *app {
	return &app{
		state:  stateMenu,
		models: config.Models,
		width:  80,
		height: 24,
	}
}

func (m app) Init() tea.Cmd { return nil }

func (m app) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if m.state == stateSim {
			return m.forward(msg)
		}
	default:
		if m.state == stateSim {
			return m.forward(msg)
		}
	}
	return m, nil
}

func (m app) forward(msg tea.Msg) (app, tea.Cmd) {
	next, cmd := m.liveModel.Update(msg)
	m.liveModel = next.(Model)
	return m, cmd
}

func (m app) handleKey(msg tea.KeyMsg) (app, tea.Cmd) {
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case statePreset:
		return m.presetKey(msg)
	case stateConfig:
		return m.configKey(msg)
	case stateSim:
		return m.forward(msg)
	}
	return m, nil
}

func (m app) menuKey(msg tea.KeyMsg) (app, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		m.cursor = max(0, m.cursor-1)
	case "down", "j":
		m.cursor = min(len(m.models)-1, m.cursor+1)
	case "enter", " ":
		m.selected = m.models[m.cursor]
		m.presets = append([]string{"default"}, config.ListPresets(m.selected)...)
		m.state, m.cursor = statePreset, 0
	}
	return m, nil
}

func (m app) presetKey(msg tea.KeyMsg) (app, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q", "esc":
		m.state, m.cursor = stateMenu, 0
	case "up", "k":
		m.cursor = max(0, m.cursor-1)
	case "down", "j":
		m.cursor = min(len(m.presets)-1, m.cursor+1)
	case "enter", " ":
		m.cfg = config.GetPreset(m.selected, m.presets[m.cursor])
		if m.cfg == nil {
			m.cfg = config.DefaultConfig()
			m.cfg.Model = m.selected
		}
		m.params = append([]param{dtParam}, modelParams[m.selected]...)
		m.state, m.paramCursor, m.err = stateConfig, 0, nil
	}
	return m, nil
}

func (m app) configKey(msg tea.KeyMsg) (app, tea.Cmd) {
	if m.editing {
		switch msg.String() {
		case "enter":
			var val float64
			if _, err := fmt.Sscanf(m.editBuf, "%g", &val); err == nil {
				m.params[m.paramCursor].set(m.cfg, val)
			}
			m.editing, m.editBuf = false, ""
		case "esc":
			m.editing, m.editBuf = false, ""
		case "backspace":
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		default:
			if s := msg.String(); len(s) == 1 {
				c := s[0]
				if (c >= '0' && c <= '9') || c == '.' || c == '-' {
					m.editBuf += s
				}
			}
		}
		return m, nil
	}
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q", "esc":
		m.state, m.cursor = statePreset, 0
	case "up", "k":
		m.paramCursor = max(0, m.paramCursor-1)
	case "down", "j":
		m.paramCursor = min(len(m.params)-1, m.paramCursor+1)
	case "enter", " ":
		p := m.params[m.paramCursor]
		m.editing, m.editBuf = true, fmt.Sprintf("%g", p.get(m.cfg))
	case "left", "h":
		p := m.params[m.paramCursor]
		p.set(m.cfg, roundStep(p.get(m.cfg)-stepFor(p.get(m.cfg))))
	case "right", "l":
		p := m.params[m.paramCursor]
		p.set(m.cfg, roundStep(p.get(m.cfg)+stepFor(p.get(m.cfg))))
	case "s":
		return m.start()
	}
	return m, nil
}

// stepFor scales the h/l increment to the magnitude of the value.
func stepFor(v float64) float64 {
	switch a := max(v, -v); {
	case a < 0.1:
		return 0.001
	case a < 1:
		return 0.01
	}
	return 0.1
}

func (m app) start() (app, tea.Cmd) {
	live, err := FromConfig(m.cfg)
	if err != nil {
		m.err = err
		return m, nil
	}
	m.liveModel, m.err = live, nil
	m.state = stateSim
	return m, m.liveModel.Init()
}

func (m app) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case statePreset:
		return m.viewPresets()
	case stateConfig:
		return m.viewConfig()
	case stateSim:
		return m.liveModel.View()
	}
	return ""
}

type menuStyles struct {
	title, sub, cursor, item, desc, dimItem, dimDesc, key lipgloss.Style
}

func newMenuStyles(t Theme) menuStyles {
	return menuStyles{
		title:   lipgloss.NewStyle().Foreground(t.Primary).Bold(true),
		sub:     lipgloss.NewStyle().Foreground(t.Muted),
		cursor:  lipgloss.NewStyle().Foreground(t.Secondary).Bold(true),
		item:    lipgloss.NewStyle().Foreground(t.Text).Bold(true),
		desc:    lipgloss.NewStyle().Foreground(t.Accent),
		dimItem: lipgloss.NewStyle().Foreground(t.Muted),
		dimDesc: lipgloss.NewStyle().Foreground(t.Muted).Faint(true),
		key:     lipgloss.NewStyle().Foreground(t.Secondary).Bold(true),
	}
}

func (s menuStyles) header(b *strings.Builder, title, sub string) {
	b.WriteString("\n\n    " + s.title.Render(title) + "\n    " + s.sub.Render(sub) + "\n    " + s.sub.Render("─────────────────────────") + "\n\n")
}

func (s menuStyles) list(b *strings.Builder, items []string, cursor int, desc func(string) string) {
	for i, name := range items {
		if i == cursor {
			fmt.Fprintf(b, "    %s %s  %s\n", s.cursor.Render("▸"), s.item.Render(fmt.Sprintf("%-16s", name)), s.desc.Render(desc(name)))
		} else {
			fmt.Fprintf(b, "    %s  %s\n", s.dimItem.Render(fmt.Sprintf("  %-16s", name)), s.dimDesc.Render(desc(name)))
		}
	}
}

func (s menuStyles) keys(b *strings.Builder, pairs ...string) {
	b.WriteString("\n    ")
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString(s.key.Render(pairs[i]) + s.sub.Render(" "+pairs[i+1]+"  "))
	}
	b.WriteString("\n")
}

func (m app) viewMenu() string {
	var b strings.Builder
	s := newMenuStyles(CurrentTheme)
	s.header(&b, "PHYSLAB", "interactive physics lab")
	s.list(&b, m.models, m.cursor, func(name string) string { return modelInfo[name] })
	s.keys(&b, "j/k", "navigate", "enter", "select", "q", "quit")
	return b.String()
}

func (m app) viewPresets() string {
	var b strings.Builder
	s := newMenuStyles(CurrentTheme)
	s.header(&b, strings.ToUpper(m.selected), "choose a preset")
	s.list(&b, m.presets, m.cursor, func(string) string { return "" })
	s.keys(&b, "j/k", "navigate", "enter", "select", "esc", "back")
	return b.String()
}

func (m app) viewConfig() string {
	var b strings.Builder
	s := newMenuStyles(CurrentTheme)
	s.header(&b, strings.ToUpper(m.selected), modelInfo[m.selected])
	for i, p := range m.params {
		valStr := fmt.Sprintf("%8.3f", p.get(m.cfg))
		if m.editing && i == m.paramCursor {
			valStr = fmt.Sprintf("%8s", m.editBuf+"_")
		}
		if i == m.paramCursor {
			fmt.Fprintf(&b, "    %s %s %s\n", s.cursor.Render("▸"), s.item.Render(fmt.Sprintf("%-14s", p.name)), s.desc.Render(valStr))
		} else {
			fmt.Fprintf(&b, "    %s %s\n", s.dimItem.Render(fmt.Sprintf("  %-14s", p.name)), s.dimDesc.Render(valStr))
		}
	}
	if m.err != nil {
		b.WriteString("\n    " + lipgloss.NewStyle().Foreground(CurrentTheme.Error).Render(m.err.Error()) + "\n")
	}
	s.keys(&b, "j/k", "select", "h/l", "adjust", "s", "start", "esc", "back")
	return b.String()
}

// RunInteractive opens the model menu.
func RunInteractive() error {
	_, err := tea.NewProgram(NewInteractiveApp(), tea.WithAltScreen()).Run()
	return err
}
