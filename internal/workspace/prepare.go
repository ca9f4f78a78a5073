package workspace

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	Part1    = "Part1"
	Part2    = "Part2"
	PlotsDir = "plots"
)

// Prepare wipes root and recreates the Part1/Part2 plot trees. Any error is
// fatal for the batch.
func Prepare(root string) error {
	if err := os.RemoveAll(root); err != nil {
		return fmt.Errorf("remove %s: %w", root, err)
	}
	return Ensure(root)
}

// Ensure creates the plot trees without touching existing content.
func Ensure(root string) error {
	for _, part := range []string{Part1, Part2} {
		dir := filepath.Join(root, part, PlotsDir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

func PlotPath(root, part, name string) string {
	return filepath.Join(root, part, PlotsDir, name)
}
