package components

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// ListManager shows a selectable list of items with add and remove
// buttons. Adding is delegated to OnAdd, which usually opens a dialog
// and calls Append.
type ListManager[T any] struct {
	list     *widget.List
	items    []T
	selected int

	render   func(T) string
	onAdd    func()
	onRemove func(T) bool
	onChange func([]T)
}

// ListManagerConfig configures a ListManager
type ListManagerConfig[T any] struct {
	Render   func(T) string
	OnAdd    func()
	OnRemove func(T) bool // returning false keeps the item
	OnChange func([]T)
	Empty    string // shown when the list has no items
}

func NewListManager[T any](items []T, cfg ListManagerConfig[T]) (*ListManager[T], fyne.CanvasObject) {
	lm := &ListManager[T]{
		items:    items,
		selected: -1,
		render:   cfg.Render,
		onAdd:    cfg.OnAdd,
		onRemove: cfg.OnRemove,
		onChange: cfg.OnChange,
	}

	lm.list = widget.NewList(
		func() int { return len(lm.items) },
		func() fyne.CanvasObject { return widget.NewLabel("template") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			if i < len(lm.items) {
				o.(*widget.Label).SetText(lm.render(lm.items[i]))
			}
		})
	lm.list.OnSelected = func(id widget.ListItemID) { lm.selected = id }
	lm.list.OnUnselected = func(widget.ListItemID) { lm.selected = -1 }

	add := widget.NewButtonWithIcon("", theme.ContentAddIcon(), func() {
		if lm.onAdd != nil {
			lm.onAdd()
		}
	})
	remove := widget.NewButtonWithIcon("", theme.ContentRemoveIcon(), lm.RemoveSelected)

	scroll := container.NewScroll(lm.list)
	scroll.SetMinSize(fyne.NewSize(0, 150))

	var body fyne.CanvasObject = scroll
	if cfg.Empty != "" {
		empty := widget.NewLabel(cfg.Empty)
		empty.Importance = widget.LowImportance
		body = container.NewStack(scroll, container.NewCenter(empty))
		lm.onChange = func(items []T) {
			if len(items) == 0 {
				empty.Show()
			} else {
				empty.Hide()
			}
			if cfg.OnChange != nil {
				cfg.OnChange(items)
			}
		}
		if len(items) > 0 {
			empty.Hide()
		}
	}

	return lm, container.NewBorder(nil, container.NewHBox(add, remove), nil, nil, body)
}

func (lm *ListManager[T]) Items() []T {
	return lm.items
}

func (lm *ListManager[T]) SetItems(items []T) {
	lm.items = items
	lm.list.UnselectAll()
	lm.selected = -1
	lm.changed()
}

func (lm *ListManager[T]) Append(item T) {
	lm.items = append(lm.items, item)
	lm.changed()
}

func (lm *ListManager[T]) RemoveSelected() {
	i := lm.selected
	if i < 0 || i >= len(lm.items) {
		return
	}
	if lm.onRemove != nil && !lm.onRemove(lm.items[i]) {
		return
	}
	lm.items = append(lm.items[:i:i], lm.items[i+1:]...)
	lm.list.UnselectAll()
	lm.selected = -1
	lm.changed()
}

func (lm *ListManager[T]) changed() {
	lm.list.Refresh()
	if lm.onChange != nil {
		lm.onChange(lm.items)
	}
}
