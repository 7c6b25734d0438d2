package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/stockflow/internal/engine"
	"github.com/san-kum/stockflow/internal/sd"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

type state int

const (
	stateMenu state = iota
	stateParams
	stateChart
)

type app struct {
	state  state
	width  int
	height int

	dir    string
	paths  []string
	names  []string
	titles []string
	cursor int

	model   *sd.Model
	runner  *engine.Runner
	loadErr error

	params      map[string]float64
	paramCursor int
	scenarios   []string
	scenario    int
	editing     bool
	editBuf     string

	traj      *sd.Trajectory
	runErr    error
	varCursor int
}

// NewApp builds the interactive explorer over the model definitions in dir.
func NewApp(dir string) (*app, error) {
	paths, err := sd.ListDir(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("tui: no model files in %s", dir)
	}
	a := &app{
		state:  stateMenu,
		dir:    dir,
		paths:  paths,
		width:  80,
		height: 24,
	}
	for _, p := range paths {
		m, err := sd.Load(p)
		if err != nil {
			a.names = append(a.names, p)
			a.titles = append(a.titles, "unreadable")
			continue
		}
		a.names = append(a.names, m.Name)
		a.titles = append(a.titles, m.Title)
	}
	return a, nil
}

func (a app) Init() tea.Cmd { return nil }

func (a app) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKey(msg)
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil
	}
	return a, nil
}

func (a app) handleKey(msg tea.KeyMsg) (app, tea.Cmd) {
	switch a.state {
	case stateMenu:
		return a.menuKey(msg)
	case stateParams:
		return a.paramsKey(msg)
	case stateChart:
		return a.chartKey(msg)
	}
	return a, nil
}

func (a app) menuKey(msg tea.KeyMsg) (app, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.paths)-1 {
			a.cursor++
		}
	case "enter", " ":
		a.open(a.paths[a.cursor])
		if a.loadErr == nil {
			a.state = stateParams
			a.paramCursor = 0
		}
	}
	return a, nil
}

func (a *app) open(path string) {
	a.model = nil
	a.runner = nil
	a.traj = nil
	a.runErr = nil

	m, err := sd.Load(path)
	if err != nil {
		a.loadErr = err
		return
	}
	r, err := engine.New(m)
	if err != nil {
		a.loadErr = err
		return
	}
	a.loadErr = nil
	a.model = m
	a.runner = r
	a.scenarios = []string{"defaults"}
	for _, s := range m.Scenarios {
		a.scenarios = append(a.scenarios, s.Name)
	}
	a.scenario = 0
	a.applyScenario()
}

func (a *app) applyScenario() {
	a.params = a.model.Defaults()
	if a.scenario > 0 {
		if s := a.model.Scenario(a.scenarios[a.scenario]); s != nil {
			for name, v := range s.Overrides {
				a.params[name] = v
			}
		}
	}
}

func (a app) paramsKey(msg tea.KeyMsg) (app, tea.Cmd) {
	if a.editing {
		switch msg.String() {
		case "enter":
			var val float64
			if _, err := fmt.Sscanf(a.editBuf, "%f", &val); err == nil {
				name := a.model.Parameters[a.paramCursor].Name
				a.params[name] = a.model.Parameters[a.paramCursor].Clamp(val)
				a.run()
			}
			a.editing = false
			a.editBuf = ""
		case "escape":
			a.editing = false
			a.editBuf = ""
		case "backspace":
			if len(a.editBuf) > 0 {
				a.editBuf = a.editBuf[:len(a.editBuf)-1]
			}
		default:
			if len(msg.String()) == 1 {
				c := msg.String()[0]
				if (c >= '0' && c <= '9') || c == '.' || c == '-' || c == 'e' {
					a.editBuf += string(c)
				}
			}
		}
		return a, nil
	}

	switch msg.String() {
	case "q", "escape":
		a.state = stateMenu
	case "ctrl+c":
		return a, tea.Quit
	case "g", " ":
		a.run()
		a.state = stateChart
		return a, tea.ClearScreen
	}
	if len(a.model.Parameters) == 0 {
		return a, nil
	}
	switch msg.String() {
	case "up", "k":
		if a.paramCursor > 0 {
			a.paramCursor--
		}
	case "down", "j":
		if a.paramCursor < len(a.model.Parameters)-1 {
			a.paramCursor++
		}
	case "left", "h":
		a.adjust(-1)
		a.run()
	case "right", "l":
		a.adjust(+1)
		a.run()
	case "enter":
		a.editing = true
		name := a.model.Parameters[a.paramCursor].Name
		a.editBuf = fmt.Sprintf("%g", a.params[name])
	case "s":
		a.scenario = (a.scenario + 1) % len(a.scenarios)
		a.applyScenario()
		a.run()
	case "r":
		a.applyScenario()
		a.run()
	}
	return a, nil
}

func (a *app) adjust(dir int) {
	p := &a.model.Parameters[a.paramCursor]
	step := 0.1
	switch {
	case p.Step != nil:
		step = *p.Step
	case p.Min != nil && p.Max != nil:
		step = (*p.Max - *p.Min) / 100
	case a.params[p.Name] != 0:
		v := a.params[p.Name]
		if v < 0 {
			v = -v
		}
		step = v / 20
	}
	a.params[p.Name] = p.Clamp(a.params[p.Name] + float64(dir)*step)
}

func (a *app) run() {
	a.traj, a.runErr = a.runner.Run(context.Background(), a.params, a.model.Time)
	if a.traj != nil && a.varCursor >= len(a.traj.Names) {
		a.varCursor = 0
	}
}

func (a app) chartKey(msg tea.KeyMsg) (app, tea.Cmd) {
	switch msg.String() {
	case "q", "escape", "p":
		a.state = stateParams
		return a, tea.ClearScreen
	case "ctrl+c":
		return a, tea.Quit
	case "up", "k":
		if a.varCursor > 0 {
			a.varCursor--
		}
	case "down", "j":
		if a.traj != nil && a.varCursor < len(a.traj.Names)-1 {
			a.varCursor++
		}
	case "s":
		a.scenario = (a.scenario + 1) % len(a.scenarios)
		a.applyScenario()
		a.run()
	case "r":
		a.run()
	}
	return a, nil
}

func (a app) View() string {
	switch a.state {
	case stateMenu:
		return a.viewMenu()
	case stateParams:
		return a.viewParams()
	case stateChart:
		return a.viewChart()
	}
	return ""
}

func (a app) viewMenu() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("         " + cyan.Render("s t o c k f l o w") + "\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("\n")

	for i, name := range a.names {
		title := a.titles[i]
		if i == a.cursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-28s", name)) + dim.Render(title) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-28s", name)) + dimmer.Render(title) + "\n")
		}
	}

	if a.loadErr != nil {
		b.WriteString("\n      " + red.Render(a.loadErr.Error()) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(dim.Render("      ↑↓ select   enter open   q quit") + "\n")

	return b.String()
}

func (a app) viewParams() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("      " + cyan.Render(a.model.Name) + "  " + dim.Render(a.model.Title) + "\n")
	b.WriteString("      " + dim.Render("scenario ") + yellow.Render(a.scenarios[a.scenario]) + "\n")
	b.WriteString(dimmer.Render("      "+strings.Repeat("─", 44)) + "\n\n")

	for i, p := range a.model.Parameters {
		val := fmt.Sprintf("%10.4g", a.params[p.Name])
		if a.editing && i == a.paramCursor {
			val = fmt.Sprintf("%10s", a.editBuf+"▋")
		}
		gauge := a.gauge(&a.model.Parameters[i], 16)
		units := p.Units
		if i == a.paramCursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-24s", p.Name)) +
				magenta.Render(val) + "  " + gauge + "  " + dim.Render(units) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-24s", p.Name)) +
				dim.Render(val) + "  " + gauge + "  " + dimmer.Render(units) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(dim.Render("      ↑↓ select  ←→ adjust  enter edit  s scenario  r reset  g run  esc back") + "\n")

	return b.String()
}

func (a app) gauge(p *sd.Parameter, width int) string {
	if p.Min == nil || p.Max == nil || *p.Max <= *p.Min {
		return strings.Repeat(" ", width)
	}
	frac := (a.params[p.Name] - *p.Min) / (*p.Max - *p.Min)
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	filled := int(frac * float64(width))
	return green.Render(strings.Repeat("━", filled)) + dimmer.Render(strings.Repeat("─", width-filled))
}

func (a app) viewChart() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("   " + cyan.Render(a.model.Name) + "  " + dim.Render("scenario ") + yellow.Render(a.scenarios[a.scenario]) + "\n\n")

	if a.runErr != nil {
		b.WriteString("   " + red.Render("run failed: "+a.runErr.Error()) + "\n")
		b.WriteString("\n" + dim.Render("   p params  q back") + "\n")
		return b.String()
	}
	if a.traj == nil || len(a.traj.Names) == 0 {
		return b.String()
	}

	name := a.traj.Names[a.varCursor]
	series := a.traj.At(name)

	gw := a.width - 16
	if gw < 40 {
		gw = 40
	}
	gh := a.height - len(a.traj.Names) - 9
	if gh < 8 {
		gh = 8
	}
	if gh > 18 {
		gh = 18
	}
	chart := asciigraph.Plot(series,
		asciigraph.Height(gh),
		asciigraph.Width(gw),
		asciigraph.Caption(fmt.Sprintf("%s  t ∈ [%g, %g]", name, a.model.Time.Start, a.model.Time.Stop)),
	)
	b.WriteString(indent(chart, "   ") + "\n\n")

	lo, hi := series[0], series[0]
	for _, v := range series {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	b.WriteString(fmt.Sprintf("   %s %s  %s %s  %s %s\n",
		dim.Render("final"), white.Render(fmt.Sprintf("%.4g", series[len(series)-1])),
		dim.Render("min"), white.Render(fmt.Sprintf("%.4g", lo)),
		dim.Render("max"), white.Render(fmt.Sprintf("%.4g", hi))))
	b.WriteString("\n")

	for i, n := range a.traj.Names {
		if i == a.varCursor {
			b.WriteString("   " + cyan.Render("▸ "+n) + "\n")
		} else {
			b.WriteString("     " + dimmer.Render(n) + "\n")
		}
	}

	b.WriteString("\n" + dim.Render("   ↑↓ variable  s scenario  r rerun  p params  q back") + "\n")

	return b.String()
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// Run starts the interactive explorer.
func Run(dir string) error {
	a, err := NewApp(dir)
	if err != nil {
		return err
	}
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
