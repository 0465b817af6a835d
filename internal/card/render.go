package card

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/tartampluch/go-schoolmenu/internal/config"
	"github.com/tartampluch/go-schoolmenu/internal/engine"
)

// TextPrinter renders a View for terminals.
type TextPrinter struct {
	NoColor bool
}

func (p TextPrinter) style(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if p.NoColor {
		c.DisableColor()
	} else {
		c.EnableColor()
	}
	return c
}

// Print writes the card: a title line, the date line and either the item list
// or the status message.
func (p TextPrinter) Print(w io.Writer, v View) error {
	title := p.style(color.Bold, color.Underline)
	date := p.style(color.FgCyan)
	faint := p.style(color.Faint, color.Italic)
	category := p.style(color.FgHiYellow, color.Faint)
	name := p.style(color.Bold)
	holiday := p.style(color.FgHiMagenta, color.Bold)

	if _, err := title.Fprintln(w, v.Title); err != nil {
		return err
	}
	if v.DateLabel != "" {
		if _, err := date.Fprintf(w, "%s  (%s)\n", v.DateLabel, v.CursorKey); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}

	var err error
	switch v.Outcome.Kind {
	case engine.KindItems:
		tbl := uitable.New()
		tbl.Separator = "  "
		tbl.Wrap = true
		tbl.MaxColWidth = config.TerminalColumnWidth
		for _, item := range v.Outcome.Items {
			tbl.AddRow(category.Sprint(item.Category), name.Sprint(item.Name))
			if item.Description != "" {
				tbl.AddRow("", faint.Sprint(item.Description))
			}
		}
		_, err = fmt.Fprintln(w, tbl)
	case engine.KindHoliday:
		if _, err = holiday.Fprintln(w, v.Message); err == nil {
			_, err = faint.Fprintln(w, v.Detail)
		}
	default:
		_, err = faint.Fprintln(w, v.Message)
	}
	return err
}

// PrintDescriptors writes one row per registered card type.
func (p TextPrinter) PrintDescriptors(w io.Writer, descs []Descriptor) error {
	head := p.style(color.Bold)
	typ := p.style(color.FgCyan)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.Wrap = true
	tbl.MaxColWidth = config.TerminalColumnWidth
	tbl.AddRow(head.Sprint(config.ColType), head.Sprint(config.ColName), head.Sprint(config.ColDescription))
	for _, d := range descs {
		tbl.AddRow(typ.Sprint(d.Type), d.Name, d.Description)
	}
	_, err := fmt.Fprintln(w, tbl)
	return err
}
