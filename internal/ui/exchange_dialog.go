package ui

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"github.com/ytget/yt-queue/internal/exchange"
	"github.com/ytget/yt-queue/internal/model"
)

// importExtensions are offered by the open dialog
var importExtensions = []string{".txt", ".csv", ".json", ".yaml", ".yml"}

// onImport reads URLs from a file and looks each new one up
func (ui *RootUI) onImport() {
	open := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, ui.window)
			return
		}
		if rc == nil {
			return
		}
		path := rc.URI().Path()
		_ = rc.Close()
		ui.importFile(path)
	}, ui.window)
	open.SetFilter(storage.NewExtensionFileFilter(importExtensions))
	open.Show()
}

func (ui *RootUI) importFile(path string) {
	urls, err := exchange.ImportFile(path)
	if err != nil {
		ui.logger.Warn("import failed", "path", path, "error", err)
		dialog.ShowError(err, ui.window)
		return
	}

	scheduled := 0
	for _, u := range urls {
		if ui.sched.HasURL(u) {
			continue
		}
		if ui.lookup(u) {
			scheduled++
		}
	}
	ui.logger.Info("imported urls", "path", path, "found", len(urls), "scheduled", scheduled)
	ui.showNotification(ui.localization.Format(KeyImported, map[string]any{"Count": scheduled}), ui.lookups > 0)
}

// onExport asks for the fields, then for the destination file. titleKey
// names the exported list.
func (ui *RootUI) onExport(titleKey string, items []model.QueueItem) {
	t := ui.localization.GetText
	if len(items) == 0 {
		ui.showNotification(t(KeyNothingToExport), false)
		return
	}

	labels := make([]string, 0, len(exchange.Fields))
	for _, f := range exchange.Fields {
		labels = append(labels, f.Label())
	}
	fields := widget.NewCheckGroup(labels, nil)
	fields.SetSelected(labels)

	formats := make([]string, 0, len(exchange.Formats))
	for _, f := range exchange.Formats {
		formats = append(formats, strings.ToUpper(string(f)))
	}
	format := widget.NewRadioGroup(formats, nil)
	format.Horizontal = true
	format.Required = true
	format.SetSelected(formats[0])

	form := widget.NewForm(
		widget.NewFormItem(t(KeyExportFields), fields),
		widget.NewFormItem("", format),
	)
	d := dialog.NewCustomConfirm(strings.TrimSuffix(t(titleKey), "..."), t(KeySave), t(KeyCancel), form, func(ok bool) {
		if !ok {
			return
		}
		chosen := selectedFields(fields.Selected)
		if len(chosen) == 0 {
			dialog.ShowError(exchange.ErrNoFields, ui.window)
			return
		}
		ui.saveExport(items, chosen, exchange.Format(strings.ToLower(format.Selected)))
	}, ui.window)
	d.Resize(fyne.NewSize(ExportDialogWidth, ExportDialogHeight))
	d.Show()
}

func (ui *RootUI) saveExport(items []model.QueueItem, fields []exchange.Field, format exchange.Format) {
	save := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, ui.window)
			return
		}
		if wc == nil {
			return
		}
		path := wc.URI().Path()
		werr := exchange.Write(wc, exportFormat(path, format), items, fields)
		if cerr := wc.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			ui.logger.Error("export failed", "path", path, "error", werr)
			dialog.ShowError(fmt.Errorf("export %s: %w", path, werr), ui.window)
			return
		}
		ui.logger.Info("exported items", "path", path, "count", len(items), "fields", len(fields))
		ui.showNotification(ui.localization.Format(KeyExportDone, map[string]any{"Count": len(items), "Path": path}), false)
	}, ui.window)
	save.SetFileName(exchange.DefaultExportName + "." + string(format))
	save.Show()
}

// exportFormat prefers the extension the user typed over the chosen format
func exportFormat(path string, chosen exchange.Format) exchange.Format {
	if f, err := exchange.FormatFromPath(path); err == nil {
		return f
	}
	return chosen
}

func selectedFields(labels []string) []exchange.Field {
	var out []exchange.Field
	for _, f := range exchange.Fields {
		for _, l := range labels {
			if f.Label() == l {
				out = append(out, f)
				break
			}
		}
	}
	return out
}
