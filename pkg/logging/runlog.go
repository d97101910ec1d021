package logging

import (
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/agentstation/assetsync/pkg/constants"
	"github.com/agentstation/assetsync/pkg/errors"
)

// RunLog is the per-run log file. Each run starts a fresh file; the previous
// Keep files are retained under timestamped backup names.
type RunLog struct {
	*lumberjack.Logger
	Path string
}

// OpenRunLog prepares dir/constants.DefaultLogFile for a new run. An existing
// non-empty file from the previous run is rotated out first.
func OpenRunLog(dir string, keep int) (*RunLog, error) {
	if dir == "" {
		dir = constants.DefaultLogDir
	}
	if keep <= 0 {
		keep = constants.DefaultLogRetention
	}
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return nil, errors.WrapIO("create", dir, err)
	}

	path := filepath.Join(dir, constants.DefaultLogFile)
	rl := &RunLog{
		Logger: &lumberjack.Logger{
			Filename:   path,
			MaxBackups: keep,
			// Size-based rotation is effectively off; rotation happens per run.
			MaxSize:   1024,
			LocalTime: true,
		},
		Path: path,
	}

	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		if err := rl.Rotate(); err != nil {
			return nil, errors.WrapIO("rotate", path, err)
		}
	}

	return rl, nil
}
