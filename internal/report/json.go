package report

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/upstreamed/forksync/internal/syncer"
	"github.com/upstreamed/forksync/internal/utils"
)

// WriteJSON writes the full run report as indented JSON for the
// invoking scheduler. Unlike the status document this is written
// unconditionally; every run is a distinct artifact.
func WriteJSON(path string, rep *syncer.RunReport) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run report: %w", err)
	}
	data = append(data, '\n')

	if err := utils.AtomicWriteFile(path, data, os.FileMode(0o644)); err != nil {
		return fmt.Errorf("write run report: %w", err)
	}
	return nil
}
