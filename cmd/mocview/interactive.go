package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	cubism "github.com/wippyai/cubism-runtime"
	"github.com/wippyai/cubism-runtime/runtime"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	paramStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// drawableRow is the per-drawable output snapshot rendered under the
// parameter list. Copied out under the model lock after every update.
type drawableRow struct {
	id          string
	opacity     float32
	drawOrder   int32
	renderOrder int32
	flags       cubism.DynamicDrawableFlags
}

type inspectorModel struct {
	core *runtime.Core
	data []byte

	moc    *runtime.Moc
	model  *runtime.Model
	params []cubism.Parameter

	values    []float32
	drawables []drawableRow
	updates   int

	selected int
	input    textinput.Model
	editing  bool
	err      error
}

type modelLoadedMsg struct {
	err   error
	moc   *runtime.Moc
	model *runtime.Model
}

func newInspectorModel(core *runtime.Core, data []byte) *inspectorModel {
	return &inspectorModel{core: core, data: data}
}

func (m *inspectorModel) Init() tea.Cmd {
	return m.loadModel
}

func (m *inspectorModel) loadModel() tea.Msg {
	moc, err := m.core.MocFromBytes(m.data)
	if err != nil {
		return modelLoadedMsg{err: err}
	}
	model, err := moc.NewModel()
	if err != nil {
		moc.Close()
		return modelLoadedMsg{err: err}
	}
	return modelLoadedMsg{moc: moc, model: model}
}

// refresh copies the render state out under the model lock.
func (m *inspectorModel) refresh() {
	static := m.model.Static()
	m.err = m.model.ReadDynamic(func(s *runtime.DynamicSnapshot) {
		m.values = append(m.values[:0], s.ParameterValues()...)

		m.drawables = m.drawables[:0]
		for i, d := range static.Drawables() {
			m.drawables = append(m.drawables, drawableRow{
				id:          d.ID,
				opacity:     s.DrawableOpacities()[i],
				drawOrder:   s.DrawableDrawOrders()[i],
				renderOrder: s.DrawableRenderOrders()[i],
				flags:       s.DrawableDynamicFlags()[i],
			})
		}
	})
}

func (m *inspectorModel) setParameter(i int, v float32) {
	p := m.params[i]
	if v < p.MinimumValue {
		v = p.MinimumValue
	}
	if v > p.MaximumValue {
		v = p.MaximumValue
	}
	m.err = m.model.WriteDynamic(func(d *runtime.DynamicState) {
		d.ParameterValues()[i] = v
	})
	m.refresh()
}

func (m *inspectorModel) step(i int) float32 {
	p := m.params[i]
	return (p.MaximumValue - p.MinimumValue) / 20
}

func (m *inspectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case modelLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.moc = msg.moc
		m.model = msg.model
		m.params = m.model.Static().Parameters()
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			switch msg.String() {
			case "enter":
				if v, err := strconv.ParseFloat(m.input.Value(), 32); err == nil {
					m.setParameter(m.selected, float32(v))
				}
				m.editing = false
				return m, nil
			case "esc":
				m.editing = false
				return m, nil
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "ctrl+c", "q":
			if m.model != nil {
				m.model.Close()
			}
			if m.moc != nil {
				m.moc.Close()
			}
			return m, tea.Quit

		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.selected < len(m.params)-1 {
				m.selected++
			}

		case "left", "h":
			if m.model != nil {
				m.setParameter(m.selected, m.values[m.selected]-m.step(m.selected))
			}

		case "right", "l":
			if m.model != nil {
				m.setParameter(m.selected, m.values[m.selected]+m.step(m.selected))
			}

		case "0":
			if m.model != nil {
				m.setParameter(m.selected, m.params[m.selected].DefaultValue)
			}

		case "enter":
			if m.model != nil {
				m.input = textinput.New()
				m.input.Prompt = m.params[m.selected].ID + " = "
				m.input.Placeholder = fmt.Sprintf("%g", m.values[m.selected])
				m.input.Width = 20
				m.input.Focus()
				m.editing = true
			}

		case "u":
			if m.model != nil {
				m.err = m.model.WriteDynamic(func(d *runtime.DynamicState) {
					d.Update()
				})
				m.updates++
				m.refresh()
			}

		case "r":
			if m.model != nil {
				m.err = m.model.WriteDynamic(func(d *runtime.DynamicState) {
					d.ResetDrawableDynamicFlags()
				})
				m.refresh()
			}
		}
	}

	return m, nil
}

func (m *inspectorModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if m.model == nil {
		return "Loading moc..."
	}

	var b strings.Builder

	canvas := m.model.Static().CanvasInfo().SizeInPixels
	b.WriteString(titleStyle.Render("Moc Inspector"))
	b.WriteString(fmt.Sprintf("  core %s, canvas %gx%g, %d updates\n\n",
		m.core.Version(), canvas.X, canvas.Y, m.updates))

	b.WriteString("Parameters:\n")
	for i, p := range m.params {
		row := fmt.Sprintf("%s %s %s",
			paramStyle.Render(fmt.Sprintf("%-24s", p.ID)),
			slider(p, m.values[i]),
			valueStyle.Render(fmt.Sprintf("%8.3f", m.values[i])))
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> "))
		} else {
			b.WriteString("  ")
		}
		b.WriteString(row)
		b.WriteString("\n")
	}

	if m.editing {
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	b.WriteString("\nDrawables:\n")
	for _, d := range m.drawables {
		b.WriteString(fmt.Sprintf("  %-24s opacity %s  orders %d/%d  flags %s\n",
			d.id,
			valueStyle.Render(fmt.Sprintf("%.2f", d.opacity)),
			d.drawOrder, d.renderOrder,
			statusStyle.Render(fmt.Sprintf("%08b", d.flags))))
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓ select • ←/→ adjust • enter type value • 0 default • u update • r reset flags • q quit"))
	return b.String()
}

// slider renders a parameter's position inside its range.
func slider(p cubism.Parameter, v float32) string {
	const width = 21
	pos := 0
	if p.MaximumValue > p.MinimumValue {
		pos = int(float32(width-1) * (v - p.MinimumValue) / (p.MaximumValue - p.MinimumValue))
	}
	if pos < 0 {
		pos = 0
	}
	if pos >= width {
		pos = width - 1
	}
	bar := []rune(strings.Repeat("─", width))
	bar[pos] = '█'
	return string(bar)
}

func runInteractive(core *runtime.Core, data []byte) error {
	p := tea.NewProgram(newInspectorModel(core, data), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
