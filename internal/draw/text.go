package draw

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/roach88/qpass/internal/ir"
	"github.com/roach88/qpass/internal/qasm"
)

// Option configures Text.
type Option func(*options)

type options struct {
	plain  bool
	fold   int
	styles Styles
}

// WithPlain disables colour and the surrounding frame.
func WithPlain() Option {
	return func(o *options) { o.plain = true }
}

// WithFold wraps the drawing into pages no wider than width cells.
// Zero or negative disables folding.
func WithFold(width int) Option {
	return func(o *options) { o.fold = width }
}

// WithStyles replaces the default colour scheme.
func WithStyles(s Styles) Option {
	return func(o *options) { o.styles = s }
}

type symKind int

const (
	symGate symKind = iota
	symControl
	symMeasure
	symBarrier
	symClassic
)

type mark struct {
	text string
	kind symKind
}

// placed is one instruction positioned in a column. Wires are numbered
// qubits first, then clbits.
type placed struct {
	lo, hi  int
	marks   map[int]mark
	quantum int // last quantum operand; links below it are classical
	barrier bool
}

type column struct {
	width int
	items []placed
}

// controlled gates: number of control operands and the symbol on the target.
var controlled = map[string]struct {
	controls int
	target   string
}{
	"cx":  {1, "⊕"},
	"ccx": {2, "⊕"},
	"cy":  {1, "Y"},
	"ch":  {1, "H"},
	"crx": {1, "RX"},
	"cry": {1, "RY"},
	"crz": {1, "RZ"},
	"cp":  {1, "P"},
}

// Circuit draws c. See Text.
func Circuit(c *ir.Circuit, opts ...Option) string {
	return Text(c.View(), opts...)
}

// Text draws a circuit view as a wire diagram, one line per bit.
func Text(v ir.View, opts ...Option) string {
	o := options{styles: DefaultStyles()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.plain {
		o.styles = plainStyles()
	}

	title := v.Name
	if v.GlobalPhase != 0 {
		title += "  global phase: " + qasm.FormatParam(v.GlobalPhase)
	}

	nq := len(v.Qubits)
	nw := nq + len(v.Clbits)
	if nw == 0 {
		return finish(o, o.styles.Title.Render(title), nil)
	}

	labels := make([]string, nw)
	labelWidth := 0
	for i, q := range v.Qubits {
		labels[i] = q.String()
	}
	for i, c := range v.Clbits {
		labels[nq+i] = c.String()
	}
	for _, l := range labels {
		labelWidth = max(labelWidth, lipgloss.Width(l))
	}

	cols := layout(v, nq, nw)
	var pages []string
	for _, page := range paginate(cols, o.fold-labelWidth-3) {
		pages = append(pages, renderPage(o.styles, page, labels, labelWidth, nq))
	}
	return finish(o, o.styles.Title.Render(title), pages)
}

func finish(o options, title string, pages []string) string {
	var b strings.Builder
	b.WriteString(title)
	b.WriteByte('\n')
	for i, p := range pages {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(p)
	}
	if o.plain {
		return b.String()
	}
	return o.styles.Frame.Render(strings.TrimSuffix(b.String(), "\n")) + "\n"
}

// layout assigns every instruction to the leftmost column free on all
// wires it spans.
func layout(v ir.View, nq, nw int) []*column {
	next := make([]int, nw)
	var cols []*column
	for _, in := range v.Instructions {
		p := place(in, nq)
		col := 0
		for w := p.lo; w <= p.hi; w++ {
			col = max(col, next[w])
		}
		for len(cols) <= col {
			cols = append(cols, &column{width: 1})
		}
		cols[col].items = append(cols[col].items, p)
		for _, m := range p.marks {
			cols[col].width = max(cols[col].width, lipgloss.Width(m.text))
		}
		for w := p.lo; w <= p.hi; w++ {
			next[w] = col + 1
		}
	}
	return cols
}

func place(in ir.ViewInstruction, nq int) placed {
	p := placed{marks: make(map[int]mark)}
	switch in.Name {
	case ir.BarrierName:
		p.barrier = true
		for _, q := range in.Qubits {
			p.marks[q] = mark{"░", symBarrier}
		}
	case "measure":
		p.marks[in.Qubits[0]] = mark{"M", symMeasure}
		for _, c := range in.Clbits {
			p.marks[nq+c] = mark{"╩", symClassic}
		}
	case "reset":
		p.marks[in.Qubits[0]] = mark{"|0>", symGate}
	case "cz":
		for _, q := range in.Qubits {
			p.marks[q] = mark{"●", symControl}
		}
	case "swap":
		for _, q := range in.Qubits {
			p.marks[q] = mark{"×", symControl}
		}
	default:
		if ctl, ok := controlled[in.Name]; ok && len(in.Qubits) == ctl.controls+1 {
			for _, q := range in.Qubits[:ctl.controls] {
				p.marks[q] = mark{"●", symControl}
			}
			t := in.Qubits[ctl.controls]
			if ctl.target == "⊕" {
				p.marks[t] = mark{"⊕", symControl}
			} else {
				p.marks[t] = mark{box(ctl.target, in.Params), symGate}
			}
			break
		}
		label := box(strings.ToUpper(in.Name), in.Params)
		for _, q := range in.Qubits {
			p.marks[q] = mark{label, symGate}
		}
	}
	if in.Condition != nil {
		sym := "□"
		if in.Condition.Value != 0 {
			sym = "■"
		}
		p.marks[nq+in.Condition.Clbit] = mark{sym, symClassic}
	}

	p.lo, p.hi, p.quantum = -1, -1, -1
	for w := range p.marks {
		if p.lo < 0 || w < p.lo {
			p.lo = w
		}
		p.hi = max(p.hi, w)
		if w < nq {
			p.quantum = max(p.quantum, w)
		}
	}
	if p.barrier {
		p.quantum = p.hi
	}
	return p
}

func box(label string, params []float64) string {
	if len(params) > 0 {
		parts := make([]string, len(params))
		for i, v := range params {
			parts[i] = qasm.FormatParam(v)
		}
		label += "(" + strings.Join(parts, ",") + ")"
	}
	return "┤" + label + "├"
}

// paginate splits columns into pages whose cells fit in width.
func paginate(cols []*column, width int) [][]*column {
	if width <= 0 {
		return [][]*column{cols}
	}
	var pages [][]*column
	var page []*column
	used := 0
	for _, c := range cols {
		w := c.width + 2
		if len(page) > 0 && used+w > width {
			pages = append(pages, page)
			page, used = nil, 0
		}
		page = append(page, c)
		used += w
	}
	return append(pages, page)
}

func renderPage(st Styles, cols []*column, labels []string, labelWidth, nq int) string {
	nw := len(labels)
	rows := make([]strings.Builder, 2*nw-1)
	for w, l := range labels {
		rows[2*w].WriteString(st.Label.Render(l + strings.Repeat(" ", labelWidth-lipgloss.Width(l))))
		rows[2*w].WriteString(" " + fill(w, nq))
		if w < nw-1 {
			rows[2*w+1].WriteString(strings.Repeat(" ", labelWidth+2))
		}
	}

	for _, col := range cols {
		width := col.width + 2
		cells := make([]string, len(rows))
		for r := range cells {
			if r%2 == 0 {
				cells[r] = strings.Repeat(fill(r/2, nq), width)
			} else {
				cells[r] = strings.Repeat(" ", width)
			}
		}
		for _, p := range col.items {
			for w := p.lo; w <= p.hi; w++ {
				m, ok := p.marks[w]
				switch {
				case ok:
					cells[2*w] = center(st.render(m), lipgloss.Width(m.text), width, fill(w, nq))
				case p.barrier:
				case w > p.quantum && w < nq:
					cells[2*w] = center(st.Classic.Render("╫"), 1, width, fill(w, nq))
				case w > p.quantum:
					cells[2*w] = center(st.Classic.Render("╬"), 1, width, fill(w, nq))
				default:
					cells[2*w] = center("┼", 1, width, fill(w, nq))
				}
			}
			for w := p.lo; w < p.hi; w++ {
				var link string
				switch {
				case p.barrier:
					_, a := p.marks[w]
					_, b := p.marks[w+1]
					if !a || !b {
						continue
					}
					link = st.Barrier.Render("░")
				case w >= p.quantum:
					link = st.Classic.Render("║")
				default:
					link = "│"
				}
				cells[2*w+1] = center(link, 1, width, " ")
			}
		}
		for r, cell := range cells {
			rows[r].WriteString(cell)
		}
	}

	var b strings.Builder
	for r := range rows {
		line := rows[r].String()
		if r%2 == 0 {
			line += fill(r/2, nq)
		}
		b.WriteString(strings.TrimRight(line, " "))
		b.WriteByte('\n')
	}
	return b.String()
}

func (st Styles) render(m mark) string {
	switch m.kind {
	case symControl:
		return st.Control.Render(m.text)
	case symMeasure:
		return st.Measure.Render(m.text)
	case symBarrier:
		return st.Barrier.Render(m.text)
	case symClassic:
		return st.Classic.Render(m.text)
	default:
		return st.Gate.Render(m.text)
	}
}

func fill(wire, nq int) string {
	if wire < nq {
		return "─"
	}
	return "═"
}

// center pads s, of display width w, to width cells with f.
func center(s string, w, width int, f string) string {
	left := (width - w) / 2
	right := width - w - left
	return strings.Repeat(f, left) + s + strings.Repeat(f, right)
}
