package workspace

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/lars-sto/congestion-control-lab/internal/config"
)

// Relocator moves the cwnd trace the single-topology program leaves at a
// fixed scratch path into <base>/<part>/<protocol>/. Every run of that
// program overwrites the scratch file, so Move must follow the run that
// produced it.
type Relocator struct {
	base string
	src  string
	log  zerolog.Logger
}

func NewRelocator(cfg config.Config, log zerolog.Logger) *Relocator {
	return &Relocator{base: cfg.OutputDir, src: cfg.TraceSource(), log: log}
}

// Move returns the new path and true, or "" and false when no trace is
// waiting at the scratch path. Absence is not an error.
func (r *Relocator) Move(part, protocol string) (string, bool, error) {
	dstDir := filepath.Join(r.base, part, protocol)
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return "", false, fmt.Errorf("create %s: %w", dstDir, err)
	}

	if _, err := os.Stat(r.src); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("stat trace %s: %w", r.src, err)
	}

	dst := filepath.Join(dstDir, filepath.Base(r.src))
	if err := moveFile(r.src, dst); err != nil {
		return "", false, err
	}
	r.log.Info().Str("path", dst).Msg("cwnd trace moved")
	return dst, true, nil
}

// moveFile renames, falling back to copy+remove when src and dst sit on
// different filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
