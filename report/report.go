// Package report renders scheduler and port state as diagnostic
// tables, the way the teacher's core.PrintState renders register and
// buffer tables with github.com/jedib0t/go-pretty/v6/table.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sarchlab/dflow/component"
	"github.com/sarchlab/dflow/payload"
)

// PortSnapshot names a component whose input/output ports are to be
// rendered, e.g. from graphcfg.Graph.Components.
type PortSnapshot struct {
	Name      string
	InPorts   []string
	OutPorts  []string
	Component *component.Component
}

// PrintPortState renders one row per named port, with columns for the
// component, the port, its direction and its current exposed value.
// Components are rendered in Name order for a stable diff across
// runs.
func PrintPortState(w io.Writer, t int64, snaps []PortSnapshot) {
	sorted := make([]PortSnapshot, len(snaps))
	copy(sorted, snaps)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetTitle(fmt.Sprintf("Dataflow state @ t=%d", t))
	tw.AppendHeader(table.Row{"Component", "Port", "Direction", "Value"})

	for _, s := range sorted {
		for _, name := range s.InPorts {
			tw.AppendRow(table.Row{s.Name, name, "in", formatValue(s.Component.GetInPortValue(name))})
		}
		for _, name := range s.OutPorts {
			tw.AppendRow(table.Row{s.Name, name, "out", formatValue(s.Component.GetOutPortValue(name))})
		}
	}

	tw.Render()
}

func formatValue(v payload.Value) string {
	p, ok := v.Get()
	if !ok {
		return "∅" // empty-set sentinel, matching spec.md's own table notation
	}
	return fmt.Sprintf("%v", p)
}
