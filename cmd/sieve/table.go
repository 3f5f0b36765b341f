package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type column struct {
	title   string
	numeric bool
}

func col(title string) column { return column{title: title} }

// num declares a right-aligned column.
func num(title string) column { return column{title: title, numeric: true} }

// textTable accumulates rows for a rounded go-pretty table.
type textTable struct {
	tw    table.Writer
	width int
}

func newTable(columns ...column) *textTable {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, c := range columns {
		header[i] = c.title
		configs[i] = table.ColumnConfig{Number: i + 1, AlignHeader: text.AlignLeft, Align: text.AlignLeft}
		if c.numeric {
			configs[i].Align = text.AlignRight
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)
	return &textTable{tw: tw, width: len(columns)}
}

// row appends cells, padding short rows and dropping extras.
func (t *textTable) row(cells ...string) {
	r := make(table.Row, t.width)
	for i := range r {
		r[i] = ""
		if i < len(cells) {
			r[i] = cells[i]
		}
	}
	t.tw.AppendRow(r)
}

func (t *textTable) String() string { return t.tw.Render() }
