package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"golang.org/x/time/rate"

	"github.com/ytget/yt-queue/internal/appctx"
	"github.com/ytget/yt-queue/internal/config"
	"github.com/ytget/yt-queue/internal/download"
	"github.com/ytget/yt-queue/internal/metadata"
	"github.com/ytget/yt-queue/internal/model"
	"github.com/ytget/yt-queue/internal/platform"
	"github.com/ytget/yt-queue/internal/tools"
)

// RootUI represents the main window
type RootUI struct {
	app          fyne.App
	window       fyne.Window
	ctx          *appctx.Context
	sched        *download.Scheduler
	localization *Localization
	logger       *slog.Logger

	urlEntry    *widget.Entry
	addBtn      *widget.Button
	filterEntry *widget.Entry
	queueList   *widget.List
	doneList    *widget.List
	tabs        *container.AppTabs

	startAllBtn      *widget.Button
	startSelectedBtn *widget.Button
	pauseBtn         *widget.Button
	cancelBtn        *widget.Button
	cancelAllBtn     *widget.Button
	removeBtn        *widget.Button
	clearBtn         *widget.Button
	clearDoneBtn     *widget.Button

	summaryLabel *widget.Label
	toolsLabel   *widget.Label

	// Notification panel
	notificationContainer *fyne.Container
	notificationLabel     *widget.Label
	notificationSpinner   *widget.ProgressBarInfinite

	visible    []*model.QueueItem
	selected   map[string]bool
	lookups    int
	toolStatus []tools.Status
	refresh    rate.Sometimes
	noteSeq    int
	closing    bool
}

// NewRootUI builds the main window over an application context. It must be
// called on the UI goroutine before the window is shown.
func NewRootUI(window fyne.Window, app fyne.App, ctx *appctx.Context) *RootUI {
	settings := ctx.Settings()

	localization := NewLocalization()
	localization.SetLanguage(settings.Language)

	ui := &RootUI{
		app:          app,
		window:       window,
		ctx:          ctx,
		sched:        ctx.Scheduler,
		localization: localization,
		logger:       ctx.Logger.With("component", "ui"),
		selected:     make(map[string]bool),
		refresh:      rate.Sometimes{First: 1, Interval: ListRefreshInterval},
	}

	app.Settings().SetTheme(NewCompactTheme(settings.Theme))
	window.Resize(fyne.NewSize(float32(settings.WindowSize[0]), float32(settings.WindowSize[1])))
	window.SetCloseIntercept(ui.onClose)

	ctx.OnEvents(ui.onEvents)
	ctx.OnResolved(ui.onResolved)

	ui.setupUI()
	for _, err := range ctx.Warnings {
		ui.showNotification(err.Error(), false)
	}
	return ui
}

// setupUI creates and arranges all UI components. It is called again after
// a language change.
func (ui *RootUI) setupUI() {
	t := ui.localization.GetText
	ui.window.SetTitle(t(KeyAppTitle))
	ui.createMenu()

	ui.urlEntry = widget.NewEntry()
	ui.urlEntry.SetPlaceHolder(t(KeyEnterURL))
	ui.urlEntry.Validator = validateURL
	ui.urlEntry.OnSubmitted = func(string) { ui.onAddClick() }
	ui.addBtn = widget.NewButton(t(KeyAdd), ui.onAddClick)
	ui.addBtn.Importance = widget.HighImportance
	topPanel := container.NewBorder(nil, nil, nil, ui.addBtn, ui.urlEntry)

	ui.notificationLabel = widget.NewLabel("")
	ui.notificationLabel.Truncation = fyne.TextTruncateEllipsis
	ui.notificationSpinner = widget.NewProgressBarInfinite()
	ui.notificationSpinner.Hide()
	ui.notificationContainer = container.NewBorder(nil, nil, ui.notificationSpinner, nil, ui.notificationLabel)
	ui.notificationContainer.Hide()

	ui.startAllBtn = widget.NewButton(t(KeyStartAll), ui.onStartAll)
	ui.startAllBtn.Importance = widget.HighImportance
	ui.startSelectedBtn = widget.NewButton(t(KeyStartSelected), ui.onStartSelected)
	ui.pauseBtn = widget.NewButton(t(KeyPause), func() { ui.forSelected(ui.sched.Pause) })
	ui.cancelBtn = widget.NewButton(t(KeyCancel), func() { ui.forSelected(ui.sched.Cancel) })
	ui.cancelAllBtn = widget.NewButton(t(KeyCancelAll), ui.onCancelAll)
	ui.removeBtn = widget.NewButton(t(KeyRemove), func() { ui.forSelected(ui.sched.Remove) })
	ui.clearBtn = widget.NewButton(t(KeyClearQueue), ui.onClearQueue)
	ui.clearBtn.Importance = widget.DangerImportance
	toolbar := container.NewHBox(
		ui.startAllBtn, ui.startSelectedBtn, widget.NewSeparator(),
		ui.pauseBtn, ui.cancelBtn, ui.cancelAllBtn, widget.NewSeparator(),
		ui.removeBtn, ui.clearBtn,
	)

	ui.filterEntry = widget.NewEntry()
	ui.filterEntry.SetPlaceHolder(t(KeyFilter))
	ui.filterEntry.OnChanged = func(string) { ui.refreshLists() }

	ui.queueList = widget.NewList(
		func() int { return len(ui.visible) },
		func() fyne.CanvasObject { return NewQueueRow(ui.localization, ui.rowActions()) },
		ui.updateQueueItem,
	)

	ui.doneList = widget.NewList(
		func() int { return len(ui.sched.Completed()) },
		func() fyne.CanvasObject { return NewCompletedRow(ui.localization, ui.completedActions()) },
		ui.updateCompletedItem,
	)
	ui.clearDoneBtn = widget.NewButton(t(KeyClearCompleted), func() {
		ui.sched.ClearCompleted()
		ui.refreshLists()
	})
	donePanel := container.NewBorder(container.NewHBox(ui.clearDoneBtn), nil, nil, nil, ui.doneList)

	queuePanel := container.NewBorder(container.NewVBox(toolbar, ui.filterEntry), nil, nil, nil, ui.queueList)
	ui.tabs = container.NewAppTabs(
		container.NewTabItem(t(KeyQueue), queuePanel),
		container.NewTabItem(t(KeyCompleted), donePanel),
	)

	ui.summaryLabel = widget.NewLabel("")
	ui.toolsLabel = widget.NewLabel(t(KeyToolsChecking))
	ui.toolsLabel.Alignment = fyne.TextAlignTrailing
	statusBar := container.NewBorder(nil, nil, ui.summaryLabel, ui.toolsLabel)
	if ui.toolStatus != nil {
		ui.toolsLabel.SetText(toolsText(ui.localization, ui.toolStatus))
	}

	content := container.NewBorder(
		container.NewVBox(topPanel, ui.notificationContainer), // top
		statusBar, // bottom
		nil,
		nil,
		ui.tabs, // center
	)
	ui.window.SetContent(content)
	ui.refreshLists()
}

// createMenu creates the application menu
func (ui *RootUI) createMenu() {
	t := ui.localization.GetText

	importItem := fyne.NewMenuItem(t(KeyImportURLs), ui.onImport)
	exportQueue := fyne.NewMenuItem(t(KeyExportQueue), func() { ui.onExport(KeyExportQueue, ui.queueSnapshot()) })
	exportSelection := fyne.NewMenuItem(t(KeyExportSelection), func() { ui.onExport(KeyExportSelection, ui.selectionSnapshot()) })
	exportCompleted := fyne.NewMenuItem(t(KeyExportCompleted), func() { ui.onExport(KeyExportCompleted, snapshot(ui.sched.Completed())) })
	copyTitles := fyne.NewMenuItem(t(KeyCopyTitles), func() { ui.copySelected(titleOf) })
	copyURLs := fyne.NewMenuItem(t(KeyCopyURLs), func() { ui.copySelected(urlOf) })
	copyAllURLs := fyne.NewMenuItem(t(KeyCopyAllURLs), func() { ui.copyLines(ui.sched.Items(), urlOf) })
	openFolder := fyne.NewMenuItem(t(KeyOpenSaveFolder), ui.onOpenSaveFolder)
	settingsItem := fyne.NewMenuItem(t(KeySettings), ui.onShowSettings)
	toolsItem := fyne.NewMenuItem(t(KeyTools), ui.onShowTools)
	quitItem := fyne.NewMenuItem(t(KeyQuit), ui.onClose)
	quitItem.IsQuit = true

	fileMenu := fyne.NewMenu(t(KeyFile),
		importItem,
		fyne.NewMenuItemSeparator(),
		exportQueue, exportSelection, exportCompleted,
		fyne.NewMenuItemSeparator(),
		copyTitles, copyURLs, copyAllURLs, openFolder,
		fyne.NewMenuItemSeparator(),
		settingsItem, toolsItem,
		fyne.NewMenuItemSeparator(),
		quitItem,
	)

	languageMenu := fyne.NewMenu(t(KeyLanguage))
	current := ui.ctx.Settings().Language
	systemItem := fyne.NewMenuItem(t(KeyLanguageSystem), func() { ui.onLanguageChange(LanguageSystem) })
	systemItem.Checked = current == LanguageSystem
	languageMenu.Items = append(languageMenu.Items, systemItem)
	for _, code := range ui.localization.GetAvailableLanguages() {
		langCode := code
		item := fyne.NewMenuItem(ui.localization.LanguageName(code), func() { ui.onLanguageChange(langCode) })
		item.Checked = current == code
		languageMenu.Items = append(languageMenu.Items, item)
	}

	ui.window.SetMainMenu(fyne.NewMainMenu(fileMenu, languageMenu))
}

// onLanguageChange switches the language and rebuilds the window content
func (ui *RootUI) onLanguageChange(lang string) {
	s := ui.ctx.Settings()
	s.Language = lang
	if _, err := ui.ctx.SaveSettings(s); err != nil {
		ui.logger.Error("failed to save language", "error", err)
	}
	ui.localization.SetLanguage(lang)
	ui.setupUI()
}

// validateURL accepts empty input and absolute http(s) URLs
func validateURL(input string) error {
	if strings.TrimSpace(input) == "" {
		return nil
	}
	parsed, err := url.Parse(strings.TrimSpace(input))
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errors.New("URL must start with http:// or https://")
	}
	if parsed.Host == "" {
		return errors.New("URL has no host")
	}
	return nil
}

// onAddClick schedules a metadata lookup for the entered URL
func (ui *RootUI) onAddClick() {
	t := ui.localization.GetText
	text := cleanText(ui.urlEntry.Text)
	if text == "" {
		ui.showNotification(t(KeyPleaseEnterURL), false)
		return
	}
	if err := validateURL(text); err != nil {
		ui.showNotification(t(KeyInvalidURL)+": "+err.Error(), false)
		return
	}
	if ui.sched.HasURL(text) {
		ui.showNotification(t(KeyAlreadyInQueue), false)
		return
	}
	if ui.lookup(text) {
		ui.urlEntry.SetText("")
	}
}

func (ui *RootUI) lookup(u string) bool {
	if err := ui.ctx.Lookup(u); err != nil {
		ui.logger.Warn("cannot schedule lookup", "url", u, "error", err)
		ui.showNotification(err.Error(), false)
		return false
	}
	ui.lookups++
	ui.showNotification(ui.localization.Format(KeyFetchingInfo, map[string]any{"URL": u}), true)
	return true
}

// onResolved turns a finished lookup into queue items
func (ui *RootUI) onResolved(r metadata.Result) {
	ui.lookups = max(ui.lookups-1, 0)
	if r.Err != nil {
		msg := ui.localization.Format(KeyLookupFailed, map[string]any{"URL": r.Request.URL})
		ui.showNotification(msg+": "+r.Err.Error(), ui.lookups > 0)
		return
	}

	settings := ui.ctx.Settings()
	added := 0
	for _, v := range r.Videos {
		it := model.NewQueueItem(v.ResolvedURL(), settings)
		it.ApplyInfo(v)
		if ui.sched.Enqueue(it) {
			added++
		}
	}
	ui.logger.Info("lookup resolved", "url", r.Request.URL, "videos", len(r.Videos), "added", added)

	if added == 0 {
		ui.showNotification(ui.localization.GetText(KeyAlreadyInQueue), ui.lookups > 0)
	} else {
		ui.showNotification(ui.localization.Format(KeyItemsAdded, map[string]any{"Count": added}), ui.lookups > 0)
	}
	ui.refreshLists()
}

// onEvents runs after the bridge applied a batch of worker events
func (ui *RootUI) onEvents(batch []download.Event) {
	// status changes always render; progress alone is throttled
	changed := false
	for _, ev := range batch {
		switch e := ev.(type) {
		case download.FinishedEvent:
			changed = true
			ui.sendCompletionNotification(e)
		case download.ErrorEvent:
			changed = true
			title := e.ID
			if it, ok := ui.sched.Item(e.ID); ok {
				title = it.GetDisplayTitle()
			}
			ui.showNotification(ui.localization.Format(KeyDownloadFailed, map[string]any{"Title": title})+": "+e.Message, false)
		case download.CancelledEvent, download.StepEvent:
			changed = true
		}
	}
	if changed {
		ui.refreshLists()
		return
	}
	ui.refresh.Do(ui.refreshLists)
}

// sendCompletionNotification sends a system notification for a finished download
func (ui *RootUI) sendCompletionNotification(e download.FinishedEvent) {
	title := e.Path
	for _, it := range ui.sched.Completed() {
		if it.ID == e.ID {
			title = it.GetDisplayTitle()
		}
	}
	msg := ui.localization.Format(KeyDownloadDone, map[string]any{"Title": title})
	ui.showNotification(msg, ui.lookups > 0)
	ui.app.SendNotification(fyne.NewNotification(ui.localization.GetText(KeyAppTitle), msg))
}

// refreshLists recomputes the visible rows and re-renders both lists
func (ui *RootUI) refreshLists() {
	if ui.queueList == nil {
		return
	}
	ui.updateVisible()
	ui.queueList.Refresh()
	ui.doneList.Refresh()
	ui.updateSummary()
}

// updateVisible applies the filter entry and drops selections of removed items
func (ui *RootUI) updateVisible() {
	filter := strings.ToLower(strings.TrimSpace(ui.filterEntry.Text))
	items := ui.sched.Items()

	ui.visible = ui.visible[:0]
	present := make(map[string]bool, len(items))
	for _, it := range items {
		present[it.ID] = true
		if matchesFilter(it, filter) {
			ui.visible = append(ui.visible, it)
		}
	}
	for id := range ui.selected {
		if !present[id] {
			delete(ui.selected, id)
		}
	}
}

func matchesFilter(it *model.QueueItem, filter string) bool {
	if filter == "" {
		return true
	}
	return strings.Contains(strings.ToLower(it.GetDisplayTitle()), filter) ||
		strings.Contains(strings.ToLower(it.URL), filter)
}

func (ui *RootUI) updateSummary() {
	waiting := 0
	for _, it := range ui.sched.Items() {
		if it.Status.IsPending() && !ui.sched.IsActive(it.ID) {
			waiting++
		}
	}
	active := ui.sched.ActiveCount()
	ui.summaryLabel.SetText(ui.localization.Format(KeyQueueSummary, map[string]any{
		"Active": active,
		"Queued": waiting,
		"Done":   len(ui.sched.Completed()),
	}))
	setEnabled(ui.clearBtn, active == 0 && len(ui.sched.Items()) > 0)
	setEnabled(ui.cancelAllBtn, active > 0 || waiting > 0)
	setEnabled(ui.clearDoneBtn, len(ui.sched.Completed()) > 0)
}

func (ui *RootUI) updateQueueItem(id widget.ListItemID, obj fyne.CanvasObject) {
	if id < 0 || id >= len(ui.visible) {
		return
	}
	row, ok := obj.(*QueueRow)
	if !ok {
		return
	}
	it := ui.visible[id]
	rec, hasProgress := ui.sched.Progress(it.ID)
	row.Bind(RowState{
		Item:        it.Clone(),
		Progress:    rec,
		HasProgress: hasProgress,
		Step:        ui.sched.Step(it.ID),
		Active:      ui.sched.IsActive(it.ID),
		Selected:    ui.selected[it.ID],
	})
}

func (ui *RootUI) updateCompletedItem(id widget.ListItemID, obj fyne.CanvasObject) {
	done := ui.sched.Completed()
	if id < 0 || id >= len(done) {
		return
	}
	if row, ok := obj.(*CompletedRow); ok {
		row.Bind(done[id].Clone())
	}
}

func (ui *RootUI) rowActions() RowActions {
	return RowActions{
		OnSelect: func(id string, on bool) {
			if on {
				ui.selected[id] = true
			} else {
				delete(ui.selected, id)
			}
		},
		OnStart: func(id string) {
			ui.handleStartError(ui.sched.StartSelected([]string{id}))
			ui.refreshLists()
		},
		OnPause:  func(id string) { ui.act(ui.sched.Pause(id)) },
		OnCancel: func(id string) { ui.act(ui.sched.Cancel(id)) },
		OnRemove: func(id string) {
			delete(ui.selected, id)
			ui.act(ui.sched.Remove(id))
		},
		OnEdit: func(id string, edit func(*model.QueueItem)) {
			if err := ui.sched.Update(id, edit); errors.Is(err, download.ErrActive) {
				ui.showNotification(ui.localization.GetText(KeyItemBusy), false)
			}
			ui.refreshLists()
		},
	}
}

func (ui *RootUI) completedActions() CompletedActions {
	return CompletedActions{
		OnOpen:   ui.onOpenFile,
		OnReveal: ui.onRevealFile,
		OnCopy:   ui.onCopyPath,
		OnRemove: func(id string) {
			ui.sched.RemoveCompleted(id)
			ui.refreshLists()
		},
	}
}

func (ui *RootUI) act(err error) {
	if err != nil {
		ui.logger.Warn("queue action failed", "error", err)
		ui.showNotification(err.Error(), false)
	}
	ui.refreshLists()
}

// selectedIDs returns the selection in queue order
func (ui *RootUI) selectedIDs() []string {
	var ids []string
	for _, it := range ui.sched.Items() {
		if ui.selected[it.ID] {
			ids = append(ids, it.ID)
		}
	}
	return ids
}

func (ui *RootUI) forSelected(fn func(id string) error) {
	ids := ui.selectedIDs()
	if len(ids) == 0 {
		ui.showNotification(ui.localization.GetText(KeyNothingSelected), false)
		return
	}
	var errs []error
	for _, id := range ids {
		errs = append(errs, fn(id))
	}
	ui.act(errors.Join(errs...))
}

func (ui *RootUI) onStartAll() {
	ui.handleStartError(ui.sched.StartAll())
	ui.refreshLists()
}

func (ui *RootUI) onStartSelected() {
	ids := ui.selectedIDs()
	if len(ids) == 0 {
		ui.showNotification(ui.localization.GetText(KeyNothingSelected), false)
		return
	}
	ui.handleStartError(ui.sched.StartSelected(ids))
	ui.refreshLists()
}

func (ui *RootUI) handleStartError(err error) {
	switch {
	case err == nil:
	case errors.Is(err, download.ErrToolsUnavailable):
		ui.showToolsMissing()
	default:
		ui.logger.Error("cannot start downloads", "error", err)
		dialog.ShowError(err, ui.window)
	}
}

func (ui *RootUI) onCancelAll() {
	ui.sched.StopAll()
	ui.refreshLists()
}

func (ui *RootUI) onClearQueue() {
	t := ui.localization.GetText
	dialog.ShowConfirm(t(KeyClearQueue), t(KeyClearQueue)+"?", func(ok bool) {
		if !ok {
			return
		}
		if err := ui.sched.Clear(); errors.Is(err, download.ErrActive) {
			ui.showNotification(t(KeyQueueBusy), false)
		}
		clear(ui.selected)
		ui.refreshLists()
	}, ui.window)
}

// onRevealFile handles revealing a file in the system file manager
func (ui *RootUI) onRevealFile(filePath string) {
	if err := platform.OpenFileInManager(filePath); err != nil {
		ui.logger.Error("failed to reveal file", "path", filePath, "error", err)
		ui.showNotification(ui.localization.GetText(KeyErrorOpeningFile)+": "+err.Error(), false)
	}
}

// onOpenFile handles opening a downloaded file with the default application
func (ui *RootUI) onOpenFile(filePath string) {
	if err := platform.OpenFileWithDefaultApp(filePath); err != nil {
		ui.logger.Error("failed to open file", "path", filePath, "error", err)
		ui.showNotification(ui.localization.GetText(KeyErrorOpeningFile)+": "+err.Error(), false)
	}
}

// onCopyPath handles copying file path to clipboard
func (ui *RootUI) onCopyPath(filePath string) {
	ui.app.Clipboard().SetContent(filePath)
	ui.showNotification(ui.localization.GetText(KeyPathCopied), false)
}

func titleOf(it *model.QueueItem) string { return cleanText(it.GetDisplayTitle()) }

func urlOf(it *model.QueueItem) string { return it.URL }

// copySelected puts one line per selected item on the clipboard
func (ui *RootUI) copySelected(line func(*model.QueueItem) string) {
	var items []*model.QueueItem
	for _, id := range ui.selectedIDs() {
		if it, ok := ui.sched.Item(id); ok {
			items = append(items, it)
		}
	}
	if len(items) == 0 {
		ui.showNotification(ui.localization.GetText(KeyNothingSelected), false)
		return
	}
	ui.copyLines(items, line)
}

func (ui *RootUI) copyLines(items []*model.QueueItem, line func(*model.QueueItem) string) {
	if len(items) == 0 {
		ui.showNotification(ui.localization.GetText(KeyNothingToExport), false)
		return
	}
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, line(it))
	}
	ui.app.Clipboard().SetContent(strings.Join(lines, "\n"))
	ui.showNotification(ui.localization.Format(KeyLinesCopied, map[string]any{"Count": len(lines)}), false)
}

// onOpenSaveFolder shows the download directory in the file manager
func (ui *RootUI) onOpenSaveFolder() {
	dir := ui.ctx.Settings().SaveFolder
	if err := config.EnsureOutputDir(dir); err != nil {
		dialog.ShowError(err, ui.window)
		return
	}
	if err := platform.OpenFolder(dir); err != nil {
		ui.logger.Error("failed to open save folder", "path", dir, "error", err)
		ui.showNotification(ui.localization.GetText(KeyErrorOpeningFile)+": "+err.Error(), false)
	}
}

// onShowSettings shows the settings dialog
func (ui *RootUI) onShowSettings() {
	NewSettingsDialog(ui.ctx.Settings(), ui.localization, ui.window, ui.onSettingsSaved).Show()
}

func (ui *RootUI) onSettingsSaved(s model.Settings) {
	previous := ui.ctx.Settings()
	saved, err := ui.ctx.SaveSettings(s)
	if err != nil {
		ui.logger.Error("failed to save settings", "error", err)
		dialog.ShowError(err, ui.window)
		return
	}
	if saved.Theme != previous.Theme {
		ui.app.Settings().SetTheme(NewCompactTheme(saved.Theme))
	}
	if saved.SaveFolder != previous.SaveFolder {
		if err := config.EnsureOutputDir(saved.SaveFolder); err != nil {
			dialog.ShowError(err, ui.window)
		}
	}
	if saved.Language != previous.Language {
		ui.localization.SetLanguage(saved.Language)
		ui.setupUI()
	}
	ui.showNotification(ui.localization.GetText(KeySettingsSaved), false)
	ui.refreshLists()
}

// CheckTools resolves the external tools in the background, installing
// missing ones when enabled, and reports the result in the status bar.
func (ui *RootUI) CheckTools() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), tools.InstallTimeout)
		defer cancel()
		statuses := ui.ctx.PrepareTools(ctx)
		fyne.Do(func() { ui.onToolsChecked(statuses) })
	}()
}

func (ui *RootUI) onToolsChecked(statuses []tools.Status) {
	ui.toolStatus = statuses
	ui.toolsLabel.SetText(toolsText(ui.localization, statuses))
	for _, st := range statuses {
		ui.logger.Info("tool resolved", "tool", st.Name, "available", st.Available, "version", st.Version, "source", st.Source)
		if st.Name == tools.Downloader && !st.Available {
			ui.showToolsMissing()
		}
	}
}

// toolsText renders the tool versions for the status bar
func toolsText(loc *Localization, statuses []tools.Status) string {
	versions := map[string]string{
		tools.Downloader: loc.GetText(KeyToolMissing),
		tools.Converter:  loc.GetText(KeyToolMissing),
	}
	for _, st := range statuses {
		if st.Available {
			versions[st.Name] = orDash(st.Version)
		}
	}
	return loc.Format(KeyToolsStatus, map[string]any{
		"Downloader": versions[tools.Downloader],
		"Converter":  versions[tools.Converter],
	})
}

func pendingStatuses(l *tools.Locator) []tools.Status {
	converter := l.ConverterPath()
	downloader, err := l.DownloaderPath()
	return []tools.Status{
		{Name: tools.Downloader, Available: err == nil, Command: downloader},
		{Name: tools.Converter, Available: converter != "", Command: converter},
	}
}

func (ui *RootUI) showToolsMissing() {
	t := ui.localization.GetText
	dialog.ShowInformation(t(KeyToolsMissingTitle), t(KeyToolsMissingMessage), ui.window)
}

// onShowTools lists the resolved tools
func (ui *RootUI) onShowTools() {
	statuses := ui.toolStatus
	if statuses == nil {
		// background check still running; show paths without versions
		statuses = pendingStatuses(ui.ctx.Tools)
	}
	form := widget.NewForm()
	for _, st := range statuses {
		text := ui.localization.GetText(KeyToolMissing)
		if st.Available {
			text = fmt.Sprintf("%s (%s)%s%s", orDash(st.Version), st.Source, MiddleDotSeparator, st.Command)
		} else if st.Detail != "" {
			text += MiddleDotSeparator + st.Detail
		}
		label := widget.NewLabel(text)
		label.Wrapping = fyne.TextWrapBreak
		form.Append(st.Name, label)
	}
	dialog.ShowCustom(ui.localization.GetText(KeyTools), ui.localization.GetText(KeyClose), form, ui.window)
}

// showNotification displays a message in the panel under the URL input.
// When spinning is true, a spinner is shown to indicate background activity.
func (ui *RootUI) showNotification(message string, spinning bool) {
	if ui.notificationLabel == nil {
		return
	}
	ui.noteSeq++
	seq := ui.noteSeq
	ui.notificationLabel.SetText(message)
	if spinning {
		ui.notificationSpinner.Show()
	} else {
		ui.notificationSpinner.Hide()
	}
	ui.notificationContainer.Show()

	if !spinning {
		time.AfterFunc(NotificationAutoHide, func() {
			fyne.Do(func() {
				if ui.noteSeq == seq {
					ui.hideNotification()
				}
			})
		})
	}
}

// hideNotification hides the notification panel
func (ui *RootUI) hideNotification() {
	ui.notificationSpinner.Hide()
	ui.notificationContainer.Hide()
}

func (ui *RootUI) queueSnapshot() []model.QueueItem {
	return snapshot(ui.sched.Items())
}

func (ui *RootUI) selectionSnapshot() []model.QueueItem {
	var out []model.QueueItem
	for _, id := range ui.selectedIDs() {
		if it, ok := ui.sched.Item(id); ok {
			out = append(out, it.Clone())
		}
	}
	return out
}

func snapshot(items []*model.QueueItem) []model.QueueItem {
	out := make([]model.QueueItem, 0, len(items))
	for _, it := range items {
		out = append(out, it.Clone())
	}
	return out
}

// onClose stops the downloads, saves state and closes the window. It blocks
// for at most the cancel timeout.
func (ui *RootUI) onClose() {
	if ui.closing {
		return
	}
	ui.closing = true
	ui.showNotification(ui.localization.GetText(KeyShuttingDown), true)

	s := ui.ctx.Settings()
	size := ui.window.Canvas().Size()
	if size.Width > 0 && size.Height > 0 {
		s.WindowSize = [2]int{int(size.Width), int(size.Height)}
		if _, err := ui.ctx.SaveSettings(s); err != nil {
			ui.logger.Error("failed to save window size", "error", err)
		}
	}
	if err := ui.ctx.Shutdown(); err != nil {
		ui.logger.Error("shutdown finished with errors", "error", err)
	}
	ui.window.Close()
	ui.app.Quit()
}
