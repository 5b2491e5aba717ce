// Package gui is the desktop front end, a thin shell over the
// analysis pipeline.
package gui

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	"framesight/internal/config"
	"framesight/internal/pipeline"
	"framesight/internal/planner"
	"framesight/pkg/util"
)

var videoExtensions = []string{".mp4", ".mov", ".mkv", ".webm", ".avi"}

// RunGUI opens the main window and blocks until it closes.
func RunGUI(logger zerolog.Logger, cfg *config.Config) error {
	pipe, err := pipeline.New(logger, cfg)
	if err != nil {
		return err
	}

	myApp := app.NewWithID("framesight")
	w := myApp.NewWindow("framesight")
	w.Resize(fyne.NewSize(820, 640))

	var videoPath string

	videoLabel := widget.NewLabel("No video loaded")
	statusLabel := widget.NewLabel("")

	providerSelect := widget.NewSelect(providerNames(), nil)
	providerSelect.SetSelected(cfg.AI.Provider)

	presetSelect := widget.NewSelect([]string{planner.PresetAuto}, nil)
	presetSelect.SetSelected(planner.PresetAuto)

	languageSelect := widget.NewSelect([]string{"auto", "english", "korean", "japanese", "chinese"}, nil)
	languageSelect.SetSelected(cfg.AI.Language)

	promptEntry := widget.NewMultiLineEntry()
	promptEntry.SetPlaceHolder("Optional extra instructions for the AI...")

	resultEntry := widget.NewMultiLineEntry()
	resultEntry.Wrapping = fyne.TextWrapWord

	refreshPresets := func() {
		if videoPath == "" {
			return
		}
		r, err := pipe.Preview(context.Background(), videoPath, providerSelect.Selected)
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		labels := []string{planner.PresetAuto}
		for _, p := range r.Presets {
			if p.Label != planner.PresetAuto {
				labels = append(labels, p.Label)
			}
		}
		presetSelect.Options = labels
		presetSelect.SetSelected(planner.PresetAuto)
		videoLabel.SetText(fmt.Sprintf("%s  (%s, %dx%d)",
			filepath.Base(videoPath),
			util.HumanDuration(r.Info.Duration),
			r.Info.Width, r.Info.Height))
		statusLabel.SetText(fmt.Sprintf("Auto plan: %s", r.Auto.Description()))
	}

	providerSelect.OnChanged = func(string) { refreshPresets() }

	loadButton := widget.NewButton("Open Video", func() {
		fd := dialog.NewFileOpen(
			func(ur fyne.URIReadCloser, err error) {
				if ur == nil {
					return
				}
				videoPath = ur.URI().Path()
				refreshPresets()
			}, w)
		fd.SetFilter(storage.NewExtensionFileFilter(videoExtensions))
		fd.Show()
	})

	analyzeButton := widget.NewButton("Analyze", nil)
	analyzeButton.OnTapped = func() {
		if videoPath == "" {
			dialog.ShowInformation("No video", "Open a video first.", w)
			return
		}
		opts := pipeline.AnalyzeOptions{
			Preset:       presetSelect.Selected,
			Provider:     providerSelect.Selected,
			Language:     languageSelect.Selected,
			CustomPrompt: promptEntry.Text,
			SaveSidecar:  true,
			SaveHistory:  true,
		}
		analyzeButton.Disable()
		statusLabel.SetText("Analyzing... this can take a few minutes")
		resultEntry.SetText("")
		go func() {
			started := time.Now()
			analysis, err := pipe.Analyze(context.Background(), videoPath, opts)
			fyne.Do(func() {
				analyzeButton.Enable()
				if err != nil {
					statusLabel.SetText("Analysis failed")
					dialog.ShowError(err, w)
					return
				}
				resultEntry.SetText(analysis.Record.Result)
				status := fmt.Sprintf("Done in %s, %d frames, ~%d tokens",
					time.Since(started).Round(time.Second),
					analysis.Record.FrameCount,
					analysis.TokensUsed)
				if analysis.Warning != "" {
					status += "  (" + analysis.Warning + ")"
				}
				statusLabel.SetText(status)
			})
		}()
	}

	w.SetContent(
		container.NewBorder(
			container.NewVBox(
				container.NewHBox(loadButton, videoLabel),
				widget.NewForm(
					widget.NewFormItem("Provider", providerSelect),
					widget.NewFormItem("Frames", presetSelect),
					widget.NewFormItem("Language", languageSelect),
				),
				promptEntry,
				container.NewHBox(analyzeButton, statusLabel),
			),
			nil, nil, nil,
			resultEntry,
		),
	)

	w.ShowAndRun()
	return nil
}

func providerNames() []string {
	providers := planner.Providers()
	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = string(p)
	}
	return names
}
