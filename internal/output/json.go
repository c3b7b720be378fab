/*
PURPOSE:
  Writes the run artifact: every result record, failures included, as one
  indented JSON array.

REQUIREMENTS:
  User-specified:
  - One document per run, at a path derived from the run name and the
    model keys used.

  Implementation-discovered:
  - Automatic file versioning (results.json.1, .2, ...) so an earlier run
    is never overwritten.
  - Records are sorted by (model, prompt, task) so the file is stable
    regardless of completion order.
  - Write to a temp file and rename, so a failed write leaves no partial
    artifact behind.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine/runner.go, internal/cli (report)
  - Consumes: internal/model.ResultRecord

ERROR HANDLING:
  - Returns *model.SerializationError on any failure.

IMPLEMENTATION RULES:
  - Use encoding/json. Written once, single-threaded, after dispatch.

USAGE:
  path, err := output.WriteArtifact(output.ArtifactPath(dir, run, models), records)

RELATED FILES:
  - internal/model/types.go
*/

package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/daryltucker/variant-runner/internal/model"
)

// ArtifactPath derives the artifact location from the run name and model keys.
func ArtifactPath(dir, runName string, models []string) string {
	name := runName
	if len(models) > 0 {
		name += "_" + strings.Join(models, "_")
	}
	return filepath.Join(dir, name+".json")
}

// WriteArtifact writes records to path, or to the next free versioned path if
// path already exists. It returns the path actually written.
func WriteArtifact(path string, records []model.ResultRecord) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", &model.SerializationError{Path: path, Err: err}
	}

	target, err := nextAvailablePath(path)
	if err != nil {
		return "", &model.SerializationError{Path: path, Err: err}
	}

	data, err := json.MarshalIndent(sortForArtifact(records), "", "  ")
	if err != nil {
		return "", &model.SerializationError{Path: target, Err: err}
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(target), ".artifact-*.json")
	if err != nil {
		return "", &model.SerializationError{Path: target, Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", &model.SerializationError{Path: target, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return "", &model.SerializationError{Path: target, Err: err}
	}
	if err := os.Rename(tmpName, target); err != nil {
		return "", &model.SerializationError{Path: target, Err: err}
	}
	return target, nil
}

// ReadArtifact loads a previously written artifact.
func ReadArtifact(path string) ([]model.ResultRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []model.ResultRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return records, nil
}

func nextAvailablePath(path string) (string, error) {
	candidate := path
	for i := 1; ; i++ {
		_, err := os.Stat(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = fmt.Sprintf("%s.%d", path, i)
	}
}

func sortForArtifact(records []model.ResultRecord) []model.ResultRecord {
	out := slices.Clone(records)
	if out == nil {
		out = []model.ResultRecord{}
	}
	slices.SortStableFunc(out, func(a, b model.ResultRecord) int {
		if c := strings.Compare(a.Model, b.Model); c != 0 {
			return c
		}
		if c := strings.Compare(a.Prompt, b.Prompt); c != 0 {
			return c
		}
		return strings.Compare(a.Task, b.Task)
	})
	return out
}
