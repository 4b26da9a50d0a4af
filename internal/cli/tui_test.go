package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m PackagePickerModel, keys ...string) PackagePickerModel {
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(PackagePickerModel)
	}
	return m
}

func pickerItems() []PickerItem {
	return []PickerItem{
		{Name: "anyhow", Version: "1.0.95"},
		{Name: "serde", Version: "1.0.217"},
		{Name: "tokio", Version: "1.43.0"},
	}
}

func TestPackagePickerToggle(t *testing.T) {
	m := press(NewPackagePickerModel(pickerItems()), "down", " ", "down", "x", "enter")

	if !m.Confirmed {
		t.Fatal("Confirmed = false after enter")
	}
	var names []string
	for _, it := range m.Selected() {
		names = append(names, it.Name)
	}
	if strings.Join(names, ",") != "serde,tokio" {
		t.Errorf("Selected() = %v", names)
	}
}

func TestPackagePickerSelectAll(t *testing.T) {
	m := press(NewPackagePickerModel(pickerItems()), "a")
	if len(m.Selected()) != 3 {
		t.Errorf("after a: %d selected", len(m.Selected()))
	}
	m = press(m, "a")
	if len(m.Selected()) != 0 {
		t.Errorf("after a a: %d selected", len(m.Selected()))
	}
}

func TestPackagePickerCursorBounds(t *testing.T) {
	m := press(NewPackagePickerModel(pickerItems()), "up", "down", "down", "down", "down")
	if m.Cursor != 2 {
		t.Errorf("Cursor = %d, want 2", m.Cursor)
	}
}

func TestPackagePickerQuit(t *testing.T) {
	m := press(NewPackagePickerModel(pickerItems()), " ", "q")
	if m.Confirmed {
		t.Error("Confirmed = true after quit")
	}
}

func TestPackagePickerView(t *testing.T) {
	m := press(NewPackagePickerModel(pickerItems()), " ")
	view := m.View()
	for _, want := range []string{"serde", "1.0.217", "[x]", "1 selected"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}
