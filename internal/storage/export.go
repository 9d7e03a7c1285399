package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/puttsim/internal/dynamo"
)

type ExportData struct {
	RunMetadata
	Steps  int            `json:"steps"`
	Times  []float64      `json:"times"`
	States []dynamo.State `json:"states"`
}

func exportData(meta RunMetadata, tr *Trajectory) ExportData {
	data := ExportData{RunMetadata: meta}
	if tr != nil {
		data.Steps = tr.Len()
		data.Times = tr.Times
		data.States = tr.States
	}
	return data
}

func ExportJSON(path string, meta RunMetadata, tr *Trajectory) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteJSON(file, meta, tr)
}

func WriteJSON(w io.Writer, meta RunMetadata, tr *Trajectory) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(exportData(meta, tr))
}
