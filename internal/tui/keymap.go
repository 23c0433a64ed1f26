// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package tui

import "strings"

// Action is something a key can trigger.
type Action int

const (
	ActionNone Action = iota
	ActionRefresh
	ActionCopySVG
	ActionHelp
	ActionQuit
)

// KeyBinding represents a key (or set of keys) and its label.
type KeyBinding struct {
	Action Action
	Keys   []string
	Label  string
	Desc   string // Longer description for the help overlay
}

// Bindings lists every key the preview understands, in help order.
var Bindings = []KeyBinding{
	{ActionRefresh, []string{"r"}, "refresh", "Fetch the readings again and redraw"},
	{ActionCopySVG, []string{"y"}, "copy svg", "Copy the chart as SVG to the clipboard"},
	{ActionHelp, []string{"?"}, "help", "Toggle this help"},
	{ActionQuit, []string{"q", "ctrl+c"}, "quit", "Quit"},
}

// actionFor resolves a key string to its action.
func actionFor(key string) Action {
	for _, b := range Bindings {
		for _, k := range b.Keys {
			if k == key {
				return b.Action
			}
		}
	}
	return ActionNone
}

// keyHint renders a consistent key hint like: "[k1/k2] label".
func keyHint(keys []string, label string) string {
	if len(keys) == 0 {
		return label
	}
	return HelpKeyStyle.Render("["+strings.Join(keys, "/")+"]") + " " + HelpDescStyle.Render(label)
}

func (m Model) renderHelpBar() string {
	hints := make([]string, 0, len(Bindings))
	for _, b := range Bindings {
		hints = append(hints, keyHint(b.Keys[:1], b.Label))
	}
	return strings.Join(hints, "  ")
}

func helpContent() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Keys"))
	b.WriteString("\n\n")
	for _, kb := range Bindings {
		b.WriteString(padRight(HelpKeyStyle.Render(strings.Join(kb.Keys, "/")), 12))
		b.WriteString(kb.Desc)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(HelpDescStyle.Render("Gaps in the line are missing readings."))
	return b.String()
}
