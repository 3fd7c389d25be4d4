package main

import (
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/bft-labs/mailship/internal/domain"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

func renderReport(w io.Writer, r domain.RunReport) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Phase", "Result"})
	t.AppendRow(table.Row{"scan cycles", r.Scan.Cycles})
	t.AppendRow(table.Row{"new addresses", r.Scan.NewAddresses})
	t.AppendRow(table.Row{"converged", r.Scan.Converged})
	if r.ScanErr != nil {
		t.AppendRow(table.Row{"scan error", r.ScanErr.Error()})
	}
	t.AppendSeparator()
	if r.DispatchSkipped {
		t.AppendRow(table.Row{"dispatch", "skipped"})
	} else {
		t.AppendRow(table.Row{"attempted", r.Dispatch.Attempted})
		t.AppendRow(table.Row{"sent", r.Dispatch.Sent})
		t.AppendRow(table.Row{"failed", r.Dispatch.Failed})
		t.AppendRow(table.Row{"already sent", r.Dispatch.Skipped})
	}
	if r.DispatchErr != nil {
		t.AppendRow(table.Row{"dispatch error", r.DispatchErr.Error()})
	}
	t.Render()
}

func renderLedger(w io.Writer, entries []domain.LedgerEntry, window time.Duration) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Address", "Last sent", "Cooldown ends"})
	for _, e := range entries {
		t.AppendRow(table.Row{
			e.Address,
			e.LastSentAt.Local().Format(time.RFC3339),
			e.ExpiresAt(window).Local().Format(time.RFC3339),
		})
	}
	t.AppendFooter(table.Row{"", "Total", len(entries)})
	t.Render()
}

func renderQueue(w io.Writer, addrs []domain.Address, sent []domain.LedgerEntry) {
	lastSent := make(map[domain.Address]time.Time, len(sent))
	for _, e := range sent {
		lastSent[e.Address] = e.LastSentAt
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"#", "Address", "Status"})
	for i, a := range addrs {
		status := "pending"
		if at, ok := lastSent[a]; ok {
			status = "sent " + at.Local().Format(time.RFC3339)
		}
		t.AppendRow(table.Row{i + 1, a, status})
	}
	t.AppendFooter(table.Row{"", "Total", len(addrs)})
	t.Render()
}
