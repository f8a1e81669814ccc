package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-i2p/i2ptunnelctl/lib/i2pcontrol"
	"github.com/spf13/cobra"
)

var (
	labelStyle = lipgloss.NewStyle().Bold(true).Width(12)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func newStatusCmd(a func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Query the router over I2PControl",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			st, err := a().control().Status()
			if err != nil {
				fmt.Fprintln(out, row("router", errStyle.Render("unreachable")))
				return err
			}
			fmt.Fprint(out, renderStatus(st))
			return nil
		},
	}
}

func renderStatus(st i2pcontrol.RouterStatus) string {
	net := st.NetStatus.String()
	switch {
	case st.NetStatus == i2pcontrol.NetStatusOK:
		net = okStyle.Render(net)
	case st.NetStatus.Running():
		net = warnStyle.Render(net)
	default:
		net = errStyle.Render(net)
	}
	return row("router", st.Status) +
		row("network", net) +
		row("version", st.Version) +
		row("uptime", fmt.Sprintf("%ds", st.Uptime/1000))
}

func row(label, value string) string {
	return labelStyle.Render(label) + value + "\n"
}
