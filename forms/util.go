// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package forms

import (
	"bytes"
	"os"
	"strings"
	"text/template"

	"github.com/choria-io/formstate/internal/sprig"
	"github.com/jedib0t/go-pretty/v6/text"
	terminal "golang.org/x/term"
)

var markupColors = map[string]text.Color{
	"bold":      text.Bold,
	"black":     text.FgBlack,
	"red":       text.FgRed,
	"green":     text.FgGreen,
	"yellow":    text.FgYellow,
	"blue":      text.FgBlue,
	"magenta":   text.FgMagenta,
	"cyan":      text.FgCyan,
	"white":     text.FgWhite,
	"hiblack":   text.FgHiBlack,
	"hired":     text.FgHiRed,
	"higreen":   text.FgHiGreen,
	"hiyellow":  text.FgHiYellow,
	"hiblue":    text.FgHiBlue,
	"himagenta": text.FgHiMagenta,
	"hicyan":    text.FgHiCyan,
	"hiwhite":   text.FgHiWhite,
}

func isTerminal() bool {
	return terminal.IsTerminal(int(os.Stdin.Fd())) && terminal.IsTerminal(int(os.Stdout.Fd()))
}

// RenderTemplate executes tmpl as a Go template with Sprig functions against env
// and then applies color markup like {red}text{/red} to the result
func RenderTemplate(tmpl string, env map[string]any) (string, error) {
	if !strings.Contains(tmpl, "{") {
		return tmpl, nil
	}

	t, err := template.New("form").Funcs(sprig.TxtFuncMap()).Parse(tmpl)
	if err != nil {
		return "", err
	}

	out := bytes.NewBuffer([]byte{})
	err = t.Execute(out, env)
	if err != nil {
		return "", err
	}

	return colorMarkup(out.String()), nil
}

// colorMarkup replaces color tags like {red}text{/red} with terminal colors.
// Innermost tags are replaced first so tags can be nested, unknown colors are removed.
func colorMarkup(input string) string {
	result := input

	for {
		next, ok := replaceInnermostTag(result)
		if !ok {
			return result
		}
		result = next
	}
}

// replaceInnermostTag replaces the first tag pair that holds no other opening tag
func replaceInnermostTag(s string) (string, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] != '{' {
			continue
		}

		end := strings.Index(s[i:], "}")
		if end == -1 {
			return s, false
		}
		end += i

		name := s[i+1 : end]
		if strings.Contains(name, "/") {
			continue
		}

		closeTag := "{/" + name + "}"
		closeStart := strings.Index(s[end+1:], closeTag)
		if closeStart == -1 {
			continue
		}
		closeStart += end + 1

		content := s[end+1 : closeStart]
		if idx := strings.Index(content, "{"); idx != -1 && !strings.HasPrefix(strings.TrimSpace(content[idx:]), "/") {
			continue
		}

		replacement := content
		if color, ok := markupColors[strings.ToLower(name)]; ok {
			replacement = text.Colors{color}.Sprint(content)
		}

		return s[:i] + replacement + s[closeStart+len(closeTag):], true
	}

	return s, false
}
