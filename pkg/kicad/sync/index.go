package sync

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// indexSheet is one entry in the project index file.
type indexSheet struct {
	File string `json:"file"`
	Name string `json:"name,omitempty"`
	Path string `json:"path"`
}

type indexFile struct {
	Project string       `json:"project"`
	Sheets  []indexSheet `json:"sheets"`
}

// writeIndex records the synchronized sheet set as <Project>.otsproj next to
// the sheets, so tooling can enumerate the tree without reparsing it. The
// file is rewritten only when its content changed, keeping repeat runs free
// of spurious writes.
func writeIndex(dir string, opts *Options, tasks []*sheetTask) error {
	idx := indexFile{Project: opts.Project}
	for _, t := range tasks {
		entry := indexSheet{File: filepath.Base(t.path), Path: t.sheetPath}
		if t.wanted != nil {
			entry.Name = t.wanted.Name
		}
		idx.Sheets = append(idx.Sheets, entry)
	}

	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	path := filepath.Join(dir, opts.Project+".otsproj")
	if old, err := os.ReadFile(path); err == nil && bytes.Equal(old, data) {
		return nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write project index: %w", err)
	}
	return nil
}
