package ui

import (
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/tartampluch/go-schoolmenu/internal/card"
	"github.com/tartampluch/go-schoolmenu/internal/config"
	"github.com/tartampluch/go-schoolmenu/internal/engine"
)

// cardView holds the widgets of the card window.
type cardView struct {
	title   *widget.Label
	date    *widget.Label
	prev    *widget.Button
	today   *widget.Button
	next    *widget.Button
	message *widget.Label
	detail  *widget.Label
	list    *widget.List
	content *fyne.Container

	items []engine.MenuItem
}

// ShowCardWindow displays the menu card. Closing the window only hides it;
// the tray brings it back.
func (app *SchoolMenuApp) ShowCardWindow() {
	if app.CardWindow != nil {
		app.CardWindow.Show()
		app.CardWindow.RequestFocus()
		return
	}

	w := app.App.NewWindow(config.AppName)
	app.CardWindow = w

	w.SetContent(app.buildCardContent())
	w.Resize(fyne.NewSize(config.CardWindowWidth, config.CardWindowHeight))
	w.SetCloseIntercept(func() { w.Hide() })

	if _, c := app.current(); c != nil {
		app.renderView(c.Last())
	}
	w.Show()
}

// buildCardContent creates the card widgets once; renderView updates them.
func (app *SchoolMenuApp) buildCardContent() fyne.CanvasObject {
	v := &cardView{}
	app.view = v

	v.title = widget.NewLabel(config.DefaultTitle)
	v.title.TextStyle = fyne.TextStyle{Bold: true}

	v.date = widget.NewLabel("")
	v.date.Alignment = fyne.TextAlignCenter

	v.prev = widget.NewButtonWithIcon("", theme.NavigateBackIcon(), func() {
		go app.navigate((*card.Card).Previous)
	})
	v.next = widget.NewButtonWithIcon("", theme.NavigateNextIcon(), func() {
		go app.navigate((*card.Card).Next)
	})
	v.today = widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnToday), theme.HomeIcon(), func() {
		go app.navigate((*card.Card).Today)
	})

	v.message = widget.NewLabel("")
	v.message.Wrapping = fyne.TextWrapWord
	v.message.Alignment = fyne.TextAlignCenter

	v.detail = widget.NewLabel("")
	v.detail.Wrapping = fyne.TextWrapWord
	v.detail.Alignment = fyne.TextAlignCenter
	v.detail.TextStyle = fyne.TextStyle{Italic: true}

	v.list = widget.NewList(
		func() int { return len(v.items) },
		newItemRow,
		func(id widget.ListItemID, o fyne.CanvasObject) {
			if id >= len(v.items) {
				return
			}
			updateItemRow(o, v.items[id])
		},
	)

	nav := container.NewBorder(nil, nil, v.prev, v.next, v.date)
	header := container.NewVBox(v.title, nav, container.NewCenter(v.today), widget.NewSeparator())
	v.content = container.NewStack(v.list, container.NewVBox(v.message, v.detail))

	app.renderLabels()
	return container.NewBorder(header, nil, nil, nil, v.content)
}

// newItemRow is the list row template: category, name, description and an
// image slot.
func newItemRow() fyne.CanvasObject {
	category := widget.NewLabel("")
	category.TextStyle = fyne.TextStyle{Italic: true}
	name := widget.NewLabel("")
	name.TextStyle = fyne.TextStyle{Bold: true}
	desc := widget.NewLabel("")
	desc.Wrapping = fyne.TextWrapWord

	slot := container.NewStack(newItemImage(nil))
	return container.NewBorder(nil, nil, nil, slot, container.NewVBox(category, name, desc))
}

func newItemImage(uri fyne.URI) *canvas.Image {
	img := canvas.NewImageFromResource(nil)
	if uri != nil {
		img = canvas.NewImageFromURI(uri)
	} else {
		img.Hide()
	}
	img.FillMode = canvas.ImageFillContain
	img.SetMinSize(fyne.NewSize(config.ItemImageSize, config.ItemImageSize))
	return img
}

// updateItemRow fills a recycled row. Border puts the center object first and
// the right slot last.
func updateItemRow(o fyne.CanvasObject, item engine.MenuItem) {
	row := o.(*fyne.Container)
	text := row.Objects[0].(*fyne.Container)
	slot := row.Objects[1].(*fyne.Container)

	text.Objects[0].(*widget.Label).SetText(item.Category)
	text.Objects[1].(*widget.Label).SetText(item.Name)
	desc := text.Objects[2].(*widget.Label)
	desc.SetText(item.Description)
	if item.Description == "" {
		desc.Hide()
	} else {
		desc.Show()
	}

	var uri fyne.URI
	if item.Image != "" {
		if u, err := storage.ParseURI(item.Image); err == nil {
			uri = u
		}
	}
	slot.Objects = []fyne.CanvasObject{newItemImage(uri)}
	slot.Refresh()
}

// renderLabels applies the current language to the static widgets.
func (app *SchoolMenuApp) renderLabels() {
	v := app.view
	if v == nil {
		return
	}
	v.today.SetText(app.GetMsg(config.TKeyBtnToday))
}

// renderView draws a card view. It must run on the UI goroutine.
func (app *SchoolMenuApp) renderView(view card.View) {
	v := app.view
	if v == nil {
		return
	}

	v.title.SetText(view.Title)
	if app.CardWindow != nil && view.Title != "" {
		app.CardWindow.SetTitle(view.Title)
	}
	v.date.SetText(view.DateLabel)

	navigable := view.Configured && view.Outcome.Kind != engine.KindMissingEntity
	for _, b := range []*widget.Button{v.prev, v.next, v.today} {
		if navigable {
			b.Enable()
		} else {
			b.Disable()
		}
	}

	v.message.SetText(view.Message)
	v.detail.SetText(view.Detail)

	if view.Outcome.Kind == engine.KindHoliday {
		v.message.TextStyle = fyne.TextStyle{Bold: true}
	} else {
		v.message.TextStyle = fyne.TextStyle{}
	}
	v.message.Refresh()

	v.items = view.Outcome.Items
	if view.Outcome.Kind == engine.KindItems {
		v.content.Objects[1].Hide()
		v.list.Show()
	} else {
		v.list.Hide()
		v.content.Objects[1].Show()
	}
	v.list.Refresh()

	slog.Debug(config.MsgOutcome,
		config.LogKeyComponent, config.CompUI,
		config.LogKeyCursor, view.CursorKey,
		config.LogKeyOutcome, view.Outcome.Kind.String())
}
