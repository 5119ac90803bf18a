// Package components holds reusable fyne widgets.
package components

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const holdTick = 50 * time.Millisecond

// HoldButton fires OnConfirmed only after being held down for
// HoldDuration. Releasing or leaving the button early resets it.
type HoldButton struct {
	widget.BaseWidget
	Text         string
	HoldDuration time.Duration
	OnConfirmed  func()

	mu       sync.Mutex
	holding  bool
	hovered  bool
	disabled bool
	progress float64
	ticker   *time.Ticker
	release  chan struct{}
}

func NewHoldButton(text string, hold time.Duration, onConfirmed func()) *HoldButton {
	b := &HoldButton{
		Text:         text,
		HoldDuration: hold,
		OnConfirmed:  onConfirmed,
	}
	b.ExtendBaseWidget(b)
	return b
}

func (b *HoldButton) CreateRenderer() fyne.WidgetRenderer {
	text := canvas.NewText(b.Text, theme.Color(theme.ColorNameForeground))
	text.Alignment = fyne.TextAlignCenter
	text.TextStyle = fyne.TextStyle{Bold: true}

	return &holdButtonRenderer{
		button:      b,
		text:        text,
		bg:          canvas.NewRectangle(theme.Color(theme.ColorNameButton)),
		progressBar: canvas.NewRectangle(theme.Color(theme.ColorNameError)),
	}
}

func (b *HoldButton) Progress() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.progress
}

func (b *HoldButton) Disable() {
	b.cancelHold()
	b.mu.Lock()
	b.disabled = true
	b.mu.Unlock()
	b.Refresh()
}

func (b *HoldButton) Enable() {
	b.mu.Lock()
	b.disabled = false
	b.mu.Unlock()
	b.Refresh()
}

func (b *HoldButton) Disabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.disabled
}

func (b *HoldButton) Tapped(*fyne.PointEvent) {}

func (b *HoldButton) TappedSecondary(*fyne.PointEvent) {}

func (b *HoldButton) MouseIn(*desktop.MouseEvent) {
	b.mu.Lock()
	b.hovered = true
	b.mu.Unlock()
	b.Refresh()
}

func (b *HoldButton) MouseMoved(*desktop.MouseEvent) {}

func (b *HoldButton) MouseOut() {
	b.mu.Lock()
	b.hovered = false
	b.mu.Unlock()
	b.cancelHold()
}

func (b *HoldButton) MouseDown(*desktop.MouseEvent) {
	b.startHold()
}

func (b *HoldButton) MouseUp(*desktop.MouseEvent) {
	b.cancelHold()
}

func (b *HoldButton) startHold() {
	b.mu.Lock()
	if b.holding || b.disabled {
		b.mu.Unlock()
		return
	}
	hold := b.HoldDuration
	if hold <= 0 {
		hold = holdTick
	}
	b.holding = true
	b.progress = 0
	b.ticker = time.NewTicker(holdTick)
	b.release = make(chan struct{})
	ticker, release := b.ticker, b.release
	b.mu.Unlock()

	step := float64(holdTick) / float64(hold)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-release:
				return
			case <-ticker.C:
			}

			b.mu.Lock()
			if !b.holding {
				b.mu.Unlock()
				return
			}
			b.progress += step
			done := b.progress >= 1
			if done {
				b.progress = 1
				b.holding = false
			}
			b.mu.Unlock()

			fyne.Do(b.Refresh)
			if done {
				if b.OnConfirmed != nil {
					b.OnConfirmed()
				}
				return
			}
		}
	}()
}

func (b *HoldButton) cancelHold() {
	b.mu.Lock()
	if b.holding {
		b.holding = false
		close(b.release)
	}
	b.progress = 0
	b.mu.Unlock()
	b.Refresh()
}

type holdButtonRenderer struct {
	button      *HoldButton
	text        *canvas.Text
	bg          *canvas.Rectangle
	progressBar *canvas.Rectangle
}

func (r *holdButtonRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.text.Resize(size)
	r.layoutProgress(size)
}

func (r *holdButtonRenderer) layoutProgress(size fyne.Size) {
	r.progressBar.Resize(fyne.NewSize(size.Width*float32(r.button.Progress()), size.Height))
	r.progressBar.Move(fyne.NewPos(0, 0))
}

func (r *holdButtonRenderer) MinSize() fyne.Size {
	textSize := r.text.MinSize()
	return fyne.NewSize(
		max(textSize.Width+theme.Padding()*4, 200),
		max(textSize.Height+theme.Padding()*2, 56),
	)
}

func (r *holdButtonRenderer) Refresh() {
	b := r.button
	b.mu.Lock()
	hovered, disabled := b.hovered, b.disabled
	b.mu.Unlock()

	r.text.Text = b.Text
	switch {
	case disabled:
		r.text.Color = theme.Color(theme.ColorNameDisabled)
		r.bg.FillColor = theme.Color(theme.ColorNameDisabledButton)
	case hovered:
		r.text.Color = theme.Color(theme.ColorNameForeground)
		r.bg.FillColor = theme.Color(theme.ColorNameHover)
	default:
		r.text.Color = theme.Color(theme.ColorNameForeground)
		r.bg.FillColor = theme.Color(theme.ColorNameButton)
	}
	r.layoutProgress(r.bg.Size())

	r.bg.Refresh()
	r.progressBar.Refresh()
	r.text.Refresh()
}

func (r *holdButtonRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.bg, r.progressBar, r.text}
}

func (r *holdButtonRenderer) Destroy() {}

func (r *holdButtonRenderer) BackgroundColor() color.Color {
	return theme.Color(theme.ColorNameButton)
}
