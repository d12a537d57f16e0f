package cmd

import (
	"github.com/olekukonko/tablewriter"
	"github.com/shaharia-lab/cypherchat/internal/chat"
	"github.com/shaharia-lab/cypherchat/internal/cli"
)

// statusColors highlights the second column of a row by level
func statusColors(level chat.Level) []tablewriter.Colors {
	switch level {
	case chat.LevelOK:
		return []tablewriter.Colors{{}, {tablewriter.Bold, tablewriter.FgGreenColor}}
	case chat.LevelWarning:
		return []tablewriter.Colors{{}, {tablewriter.Bold, tablewriter.FgYellowColor}}
	default:
		return []tablewriter.Colors{{}, {tablewriter.Bold, tablewriter.FgRedColor}}
	}
}

// newController builds a controller for one-shot commands that have no interactive view
func newController(container *cli.Container, confirmer chat.Confirmer) (*chat.Controller, error) {
	return chat.NewController(chat.Deps{
		Backend:   container.API,
		Store:     container.Store,
		Themes:    container.ThemeMgr,
		View:      chat.NopView{},
		Confirmer: confirmer,
		Logger:    container.Logger,
		ExportDir: container.ExportDir(),
	})
}
