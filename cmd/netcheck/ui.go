package main

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/digineo/go-netcheck/monitor"
)

// userInterface shows the latest snapshot as a table, with the log below.
type userInterface struct {
	app    *tview.Application
	header *tview.TextView
	table  *tview.Table
	logs   *tview.TextView
}

func buildTUI() *userInterface {
	ui := &userInterface{
		app:    tview.NewApplication(),
		header: tview.NewTextView(),
		table:  tview.NewTable().SetBorders(false).SetFixed(1, 0),
		logs:   tview.NewTextView(),
	}

	ui.header.SetText("waiting for the first check…")
	ui.table.SetBorder(true).SetTitle(" netcheck (press [q] to exit) ")

	ui.table.SetCell(0, 0, tview.NewTableCell("target").SetAlign(tview.AlignLeft).SetSelectable(false))
	ui.table.SetCell(0, 1, tview.NewTableCell("state").SetAlign(tview.AlignLeft).SetSelectable(false))
	ui.table.SetCell(0, 2, tview.NewTableCell("address").SetAlign(tview.AlignLeft).SetSelectable(false))

	ui.logs.SetMaxLines(200)
	ui.logs.SetBorder(true).SetTitle(" log ")
	ui.logs.SetChangedFunc(func() { ui.app.Draw() })

	ui.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			ui.app.Stop()
			return nil
		case tcell.KeyRune:
			if event.Rune() == 'q' {
				ui.app.Stop()
				return nil
			}
		}
		return event
	})

	return ui
}

// Run blocks until the user quits or Stop is called.
func (ui *userInterface) Run() error {
	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(ui.header, 1, 0, false).
		AddItem(ui.table, 0, 2, true).
		AddItem(ui.logs, 0, 1, false)

	return ui.app.SetRoot(layout, true).SetFocus(ui.table).Run()
}

func (ui *userInterface) Stop() {
	ui.app.Stop()
}

// Publish implements monitor.Sink.
func (ui *userInterface) Publish(snap monitor.Snapshot) {
	ui.app.QueueUpdateDraw(func() {
		ui.render(snap)
	})
}

func (ui *userInterface) render(snap monitor.Snapshot) {
	ui.header.SetText(headline(snap))

	for r := ui.table.GetRowCount() - 1; r > 0; r-- {
		ui.table.RemoveRow(r)
	}

	for i, o := range snap.Outcomes {
		state, color := "down", tcell.ColorRed
		if o.Up {
			state, color = "up", tcell.ColorGreen
		}
		ip := o.IP
		if ip == "" {
			ip = "-"
		}

		r := i + 1
		ui.table.SetCell(r, 0, tview.NewTableCell(o.Name).SetAlign(tview.AlignLeft))
		ui.table.SetCell(r, 1, tview.NewTableCell(state).SetAlign(tview.AlignLeft).SetTextColor(color))
		ui.table.SetCell(r, 2, tview.NewTableCell(ip).SetAlign(tview.AlignLeft))
	}
}

// headline is the one line summary shared by the table and log output.
func headline(snap monitor.Snapshot) string {
	ip := snap.PublicIP
	if ip == "" {
		ip = "unknown"
	}
	return fmt.Sprintf("%s  public ip %s (%s), %s, checked %s",
		snap.Title(),
		ip,
		snap.Country,
		snap.Failure,
		snap.CheckedAt.Format(time.TimeOnly),
	)
}
