/*
 * Copyright (C) 2025 rpmtrace contributors
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License version 3 as
 * published by the Free Software Foundation.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

package preprocess

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/nic-ct/rpmtrace/internal/tracetypes"
)

// These mirror the §6 result.json schema exactly; they exist
// independently of tracetypes so that the wire format doesn't silently
// drift if the in-memory model changes shape.
type manifestCompilerID struct {
	ID      string `json:"id"`
	Like    string `json:"like,omitempty"`
	Version string `json:"version"`
}

type manifestCommand struct {
	Cwd        string             `json:"cwd"`
	Compiler   manifestCompilerID `json:"compiler"`
	Executable string             `json:"executable"`
	Args       []string           `json:"args"`
}

type manifestSourceMetadata struct {
	Lang     string  `json:"lang"`
	Standard *string `json:"standard"`
}

type manifestRow struct {
	PreprocessedFile string                 `json:"preprocessed_file"`
	SourceFile       string                 `json:"source_file"`
	SourceMetadata   manifestSourceMetadata `json:"source_metadata"`
	Command          manifestCommand        `json:"command"`
}

func toManifestRow(item tracetypes.ResultItem) manifestRow {
	var std *string
	if item.SourceMetadata.Standard != "" {
		s := item.SourceMetadata.Standard
		std = &s
	}
	return manifestRow{
		PreprocessedFile: item.PreprocessedFile,
		SourceFile:       item.SourceFile,
		SourceMetadata: manifestSourceMetadata{
			Lang:     item.SourceMetadata.Lang,
			Standard: std,
		},
		Command: manifestCommand{
			Cwd: item.Command.Cwd,
			Compiler: manifestCompilerID{
				ID:      item.Command.Compiler.ID,
				Like:    item.Command.Compiler.Like,
				Version: item.Command.Compiler.Version,
			},
			Executable: item.Command.Executable,
			Args:       item.Command.Args,
		},
	}
}

// WriteManifest serializes items to stagingRoot/result.json, an array of
// objects in the order items is given (manifest order is explicitly not
// a contract — see §5 ordering guarantees — but serialization itself
// must still be deterministic for a fixed input slice).
func WriteManifest(stagingRoot string, items []tracetypes.ResultItem) error {
	rows := make([]manifestRow, len(items))
	for i, item := range items {
		rows[i] = toManifestRow(item)
	}

	data, err := json.MarshalIndent(rows, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(stagingRoot, "result.json"), data, 0644)
}
