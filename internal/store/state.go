package store

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// LoadState reads the previous run's unit-name set. An absent or corrupt
// state file is not an error: the previous set is then empty and every
// current unit will report as added.
func LoadState(path string, logger *zap.Logger) map[string]struct{} {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("State file unreadable, treating previous unit set as empty",
				zap.String("path", path),
				zap.Error(err))
		}
		return map[string]struct{}{}
	}

	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		logger.Warn("State file corrupt, treating previous unit set as empty",
			zap.String("path", path),
			zap.Error(err))
		return map[string]struct{}{}
	}

	units := make(map[string]struct{}, len(names))
	for _, name := range names {
		units[name] = struct{}{}
	}
	return units
}

// SaveState overwrites the state file with the current unit set, written as
// a sorted JSON array. The write goes through a temp file and rename so an
// interrupted run cannot leave a half-written state behind.
func SaveState(path string, units map[string]struct{}) error {
	names := make([]string, 0, len(units))
	for name := range units {
		names = append(names, name)
	}
	sort.Strings(names)

	data, err := json.Marshal(names)
	if err != nil {
		return eris.Wrap(err, "state: marshal unit set")
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return eris.Wrap(err, "state: write temp file")
	}
	if err := os.Rename(tmp, path); err != nil {
		return eris.Wrap(err, "state: replace state file")
	}
	return nil
}
