package main

import (
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
	"github.com/zxhio/delaysim/internal/config"
	"github.com/zxhio/delaysim/internal/service"
	"github.com/zxhio/delaysim/internal/state"
	"github.com/zxhio/delaysim/pkg/utils"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show bridge state of every configured interface group",
	Aliases: []string{"st"},
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(opts.yaml, config.WithDefaultDelay(opts.delay))
		utils.CheckErrorAndExit(err, "Load config %s", opts.yaml)

		store, err := state.Open(opts.stateFile)
		utils.CheckErrorAndExit(err, "Load state %s", opts.stateFile)

		var prober service.NetlinkProber
		data := [][]any{}
		for _, g := range cfg.Groups {
			bridge, detection := "-", color.YellowString("unassigned")
			id, ok, err := store.LookupGroupID(g.Members)
			if err != nil {
				detection = color.RedString("inconsistent")
			} else if ok {
				bridge = "br" + strconv.Itoa(id)
				detection = colorDetection(prober.Probe(bridge))
			}
			data = append(data, []any{g.Name, bridge, utils.SliceString(g.Members), g.Delay, g.QueueCount, detection})
		}

		table := tablewriter.NewTable(os.Stdout,
			tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
				Borders: tw.BorderNone,
				Settings: tw.Settings{
					Separators: tw.SeparatorsNone,
					Lines:      tw.LinesNone,
				},
			})),
		)
		table.Header("Group", "Bridge", "Members", "Delay", "Queues", "State")
		table.Bulk(data)
		table.Render()
	},
}

func colorDetection(d service.Detection, err error) string {
	switch d {
	case service.DetectionConfigured:
		return color.GreenString(d.String())
	case service.DetectionProbeFailed:
		return color.RedString("%s: %v", d, err)
	default:
		return d.String()
	}
}
