package irq

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/zxhio/delaysim/internal/model"
)

// Render writes one row per assignment: interface key with its occurrence,
// IRQ, core and mask.
func (p *Planner) Render(assignments []model.IRQAssignment) {
	data := [][]any{}
	for _, a := range assignments {
		data = append(data, []any{fmt.Sprintf("%s-%d", a.Key, a.Index), a.IRQ, a.Core, a.Mask})
	}

	table := tablewriter.NewTable(p.out,
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.SeparatorsNone,
				Lines:      tw.LinesNone,
			},
		})),
	)
	table.Header("Interface", "IRQ", "Core", "Mask")
	table.Bulk(data)
	table.Render()
}
