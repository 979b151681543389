/*
 * Copyright (c) 2026 Sharknado Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package cli provides shared terminal output helpers for the
// Sharknado binaries: styled strings, status lines, and simple layout.
//
// Styling is delegated to github.com/fatih/color, which disables ANSI
// output automatically when stdout is not a terminal.
package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

var (
	highlight = color.New(color.FgCyan, color.Bold).SprintFunc()
	info      = color.New(color.FgCyan).SprintFunc()
	success   = color.New(color.FgGreen).SprintFunc()
	warning   = color.New(color.FgYellow).SprintFunc()
	errText   = color.New(color.FgRed, color.Bold).SprintFunc()
	dimmed    = color.New(color.Faint).SprintFunc()
)

// Highlight styles a string for emphasis (bold cyan).
func Highlight(s string) string { return highlight(s) }

// Info styles a string as informational (cyan).
func Info(s string) string { return info(s) }

// Warning styles a string as a warning (yellow).
func Warning(s string) string { return warning(s) }

// Dimmed styles a string as secondary detail (faint).
func Dimmed(s string) string { return dimmed(s) }

// Separator returns a horizontal rule of the given width.
func Separator(width int) string {
	return dimmed(strings.Repeat("─", width))
}

// KeyValue prints an aligned "key: value" line.
func KeyValue(key, value string, keyWidth int) {
	fmt.Printf("  %s %s\n", dimmed(fmt.Sprintf("%-*s", keyWidth, key+":")), value)
}

// PrintInfo prints an informational status line.
func PrintInfo(format string, args ...any) {
	fmt.Printf("%s %s\n", info("→"), fmt.Sprintf(format, args...))
}

// PrintSuccess prints a success status line.
func PrintSuccess(format string, args ...any) {
	fmt.Printf("%s %s\n", success("✓"), fmt.Sprintf(format, args...))
}

// PrintWarning prints a warning status line.
func PrintWarning(format string, args ...any) {
	fmt.Printf("%s %s\n", warning("!"), fmt.Sprintf(format, args...))
}

// PrintError prints an error status line.
func PrintError(format string, args ...any) {
	fmt.Printf("%s %s\n", errText("✗"), fmt.Sprintf(format, args...))
}
