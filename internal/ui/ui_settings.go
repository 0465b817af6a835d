package ui

import (
	"errors"
	"log/slog"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/tartampluch/go-schoolmenu/internal/config"
	"github.com/tartampluch/go-schoolmenu/internal/host"
)

// settingsWidgets holds references to UI elements to simplify data retrieval during save.
type settingsWidgets struct {
	entityEntry     *widget.Entry
	titleEntry      *widget.Entry
	categoriesEntry *widget.Entry
	modeSelect      *widget.Select
	urlEntry        *widget.Entry
	tokenEntry      *widget.Entry
	pathEntry       *widget.Entry
	langSelect      *widget.Select
	entryPort       *NumericalEntry
}

// ShowSettingsWindow displays the configuration dialog.
func (app *SchoolMenuApp) ShowSettingsWindow() {
	if app.Window != nil {
		slog.Debug(config.MsgSettingsFocus, config.LogKeyComponent, config.CompUISet)
		app.Window.RequestFocus()
		return
	}

	slog.Info(config.MsgSettingsOpen, config.LogKeyComponent, config.CompUISet)
	w := app.App.NewWindow(app.GetMsg(config.TKeyWinSettings))
	app.Window = w

	sw := app.newSettingsWidgets()

	var refreshLayout func()
	onLayoutChange := func() {
		if refreshLayout != nil {
			refreshLayout()
		}
	}

	cardSection := app.buildCardSection(sw)
	hostSection := app.buildHostSection(w, sw, onLayoutChange)
	generalSection := app.buildGeneralSection(sw)

	saveAction := func() {
		// Entity and port block saving when invalid.
		for _, err := range []error{sw.entityEntry.Validate(), sw.entryPort.Validate()} {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
		}
		app.saveSettings(sw, w)
	}

	btnSave := widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnSave), theme.DocumentSaveIcon(), saveAction)
	btnSave.Importance = widget.HighImportance
	btnCancel := widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnCancel), theme.CancelIcon(), func() { w.Close() })

	footerLabel := widget.NewLabel(app.Translator.Msg(config.TKeyLblFooter, map[string]any{"Version": config.Version}))
	footerLabel.Alignment = fyne.TextAlignCenter
	footerLabel.TextStyle = fyne.TextStyle{Italic: true}

	paddedContent := container.NewPadded(container.NewVBox(
		cardSection,
		hostSection,
		generalSection,
		container.NewGridWithColumns(config.LayoutColumnsDouble, btnCancel, btnSave),
		footerLabel,
	))

	refreshLayout = func() {
		paddedContent.Refresh()
		minSize := paddedContent.MinSize()
		w.Resize(fyne.NewSize(config.SettingsWindowWidth, minSize.Height))
	}

	w.SetContent(paddedContent)
	w.SetFixedSize(true)
	w.SetOnClosed(func() { app.Window = nil })

	refreshLayout()
	w.Show()
}

// newSettingsWidgets creates the inputs pre-filled from the effective settings.
func (app *SchoolMenuApp) newSettingsWidgets() *settingsWidgets {
	cardCfg := app.loadCardConfig()
	opts := app.loadHostOptions()
	sw := &settingsWidgets{}

	sw.entityEntry = widget.NewEntry()
	sw.entityEntry.PlaceHolder = config.PlaceholderEntity
	sw.entityEntry.SetText(cardCfg.Entity)
	sw.entityEntry.Validator = func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(app.GetMsg(config.TKeyErrEntityReq))
		}
		return nil
	}

	sw.titleEntry = widget.NewEntry()
	sw.titleEntry.PlaceHolder = config.DefaultTitle
	sw.titleEntry.SetText(cardCfg.Title)

	sw.categoriesEntry = widget.NewEntry()
	sw.categoriesEntry.PlaceHolder = strings.Join(config.KnownCategories, config.CategoryListSeparator)
	sw.categoriesEntry.SetText(strings.Join(cardCfg.Categories, config.CategoryListSeparator+" "))

	sw.modeSelect = widget.NewSelect([]string{
		app.GetMsg(config.TKeyModeDemo),
		app.GetMsg(config.TKeyModeFile),
		app.GetMsg(config.TKeyModeREST),
	}, nil)

	sw.urlEntry = widget.NewEntry()
	sw.urlEntry.PlaceHolder = config.PlaceholderURL
	sw.urlEntry.SetText(opts.URL)

	// The token is pre-filled from secure storage, never from preferences.
	sw.tokenEntry = widget.NewPasswordEntry()
	sw.tokenEntry.SetText(opts.Token)

	sw.pathEntry = widget.NewEntry()
	sw.pathEntry.SetText(opts.StateFile)

	languages := config.SupportedLanguages
	if app.Translator != nil {
		languages = app.Translator.Languages()
	}
	sw.langSelect = widget.NewSelect(languages, nil)
	sw.langSelect.SetSelected(app.language())

	sw.entryPort = NewPortEntry(app.GetMsg)
	sw.entryPort.SetText(app.Preferences.StringWithFallback(config.PrefServerPort, app.serverPort()))
	return sw
}

func (app *SchoolMenuApp) serverPort() string {
	if app.Server != nil && app.Server.Port != "" {
		return app.Server.Port
	}
	return config.DefaultPort
}

// buildCardSection constructs the entity, title and category inputs.
func (app *SchoolMenuApp) buildCardSection(sw *settingsWidgets) *widget.Card {
	itemEntity := widget.NewFormItem(app.GetMsg(config.TKeyLblEntity), sw.entityEntry)
	itemEntity.HintText = app.GetMsg(config.TKeyHelpEntity)

	itemTitle := widget.NewFormItem(app.GetMsg(config.TKeyLblTitle), sw.titleEntry)

	itemCategories := widget.NewFormItem(app.GetMsg(config.TKeyLblCategories), sw.categoriesEntry)
	itemCategories.HintText = app.GetMsg(config.TKeyHelpCategory)

	form := widget.NewForm(itemEntity, itemTitle, itemCategories)
	return widget.NewCard(app.GetMsg(config.TKeyLblCard), "", form)
}

// buildHostSection constructs the source selection UI.
func (app *SchoolMenuApp) buildHostSection(w fyne.Window, sw *settingsWidgets, onLayoutChange func()) *widget.Card {
	browseBtn := widget.NewButton(app.GetMsg(config.TKeyBtnBrowse), func() {
		d := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
			if err == nil && r != nil {
				sw.pathEntry.SetText(r.URI().Path())
				_ = r.Close()
			}
		}, w)
		d.SetFilter(storage.NewExtensionFileFilter([]string{config.ExtJSON}))
		d.Show()
	})

	restForm := widget.NewForm(
		widget.NewFormItem(app.GetMsg(config.TKeyLblURL), sw.urlEntry),
		widget.NewFormItem(app.GetMsg(config.TKeyLblToken), sw.tokenEntry),
	)
	fileForm := widget.NewForm(
		widget.NewFormItem(app.GetMsg(config.TKeyLblStateFile),
			container.NewBorder(nil, nil, nil, browseBtn, sw.pathEntry)),
	)

	// Dynamic visibility based on mode
	updateVis := func(label string) {
		switch app.modeFromLabel(label) {
		case config.HostModeREST:
			restForm.Show()
			fileForm.Hide()
		case config.HostModeFile:
			restForm.Hide()
			fileForm.Show()
		default:
			restForm.Hide()
			fileForm.Hide()
		}
		if onLayoutChange != nil {
			onLayoutChange()
		}
	}
	sw.modeSelect.OnChanged = updateVis
	sw.modeSelect.SetSelected(app.modeLabel(app.loadHostMode()))
	updateVis(sw.modeSelect.Selected)

	return widget.NewCard(app.GetMsg(config.TKeyLblHost), "", container.NewVBox(sw.modeSelect, restForm, fileForm))
}

// buildGeneralSection constructs the language and port inputs.
func (app *SchoolMenuApp) buildGeneralSection(sw *settingsWidgets) *widget.Card {
	itemLang := widget.NewFormItem(app.GetMsg(config.TKeyLblLanguage), sw.langSelect)
	itemPort := widget.NewFormItem(app.GetMsg(config.TKeyLblPort), sw.entryPort)
	return widget.NewCard(app.GetMsg(config.TKeyLblGeneral), "", widget.NewForm(itemLang, itemPort))
}

func (app *SchoolMenuApp) modeLabel(mode string) string {
	switch mode {
	case config.HostModeFile:
		return app.GetMsg(config.TKeyModeFile)
	case config.HostModeREST:
		return app.GetMsg(config.TKeyModeREST)
	default:
		return app.GetMsg(config.TKeyModeDemo)
	}
}

func (app *SchoolMenuApp) modeFromLabel(label string) string {
	switch label {
	case app.GetMsg(config.TKeyModeFile):
		return config.HostModeFile
	case app.GetMsg(config.TKeyModeREST):
		return config.HostModeREST
	default:
		return config.HostModeDemo
	}
}

// saveSettings persists the inputs. The preference listener then reconnects
// the worker with the new host and card.
func (app *SchoolMenuApp) saveSettings(sw *settingsWidgets, w fyne.Window) {
	slog.Info(config.MsgSettingsSaved, config.LogKeyComponent, config.CompUISet)

	mode := app.modeFromLabel(sw.modeSelect.Selected)
	url := strings.TrimSpace(sw.urlEntry.Text)

	app.Preferences.SetString(config.PrefEntity, strings.TrimSpace(sw.entityEntry.Text))
	app.Preferences.SetString(config.PrefTitle, strings.TrimSpace(sw.titleEntry.Text))
	app.Preferences.SetString(config.PrefCategories,
		strings.Join(splitCategories(sw.categoriesEntry.Text), config.CategoryListSeparator))
	app.Preferences.SetString(config.PrefHostMode, mode)
	app.Preferences.SetString(config.PrefHostURL, url)
	app.Preferences.SetString(config.PrefStateFile, strings.TrimSpace(sw.pathEntry.Text))
	app.Preferences.SetString(config.PrefLanguage, sw.langSelect.Selected)

	if sw.entryPort.Text != "" {
		app.Preferences.SetString(config.PrefServerPort, sw.entryPort.Text)
	}

	// Tokens only go to the keyring.
	if mode == config.HostModeREST && url != "" {
		if err := host.SaveToken(url, sw.tokenEntry.Text); err != nil {
			slog.Error(config.ErrTokenSave,
				config.LogKeyError, err,
				config.LogKeyComponent, config.CompUISet)
		}
	}

	app.UpdateLocalizer()
	app.RefreshTrayMenu()
	app.renderLabels()

	w.Close()
}
