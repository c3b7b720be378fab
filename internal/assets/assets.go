// Package assets embeds the built-in prompt variants, tasks and jq helpers.
package assets

import (
	"embed"
	"io/fs"
	"path"
	"strings"
)

//go:embed functions/*.jq
var Functions embed.FS

//go:embed prompts/*.md tasks/*.md
var content embed.FS

// Prompts returns the built-in prompt variants keyed by file name without extension.
func Prompts() map[string]string {
	return load("prompts")
}

// Tasks returns the built-in tasks keyed by file name without extension.
func Tasks() map[string]string {
	return load("tasks")
}

func load(dir string) map[string]string {
	entries, err := fs.ReadDir(content, dir)
	if err != nil {
		return nil
	}
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := fs.ReadFile(content, path.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		name := strings.TrimSuffix(e.Name(), path.Ext(e.Name()))
		out[name] = strings.TrimSpace(string(data))
	}
	return out
}
