package loadorder

import (
	"os"
	"path/filepath"

	"github.com/mod-troubleshooter/loadorder/internal/game"
	"github.com/mod-troubleshooter/loadorder/internal/plugin"
)

// resolvePath implements spec.md §4.1 step 1: join name with the data
// directory and, if ghosting is allowed and the plain file does not exist,
// try the ".ghost" sibling.
func (lo *LoadOrder) resolvePath(name string) string {
	dataDir := ""
	if dirs := lo.settings.DataDirs(); len(dirs) > 0 {
		dataDir = dirs[len(dirs)-1]
	}
	plain := filepath.Join(dataDir, name)
	if !lo.settings.AllowsGhosting() {
		return plain
	}
	if pathExists(plain) {
		return plain
	}
	ghosted := plain + ".ghost"
	if pathExists(ghosted) {
		return ghosted
	}
	return plain
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// disciplineInsertPosition applies each discipline's override to the
// generic insertion rule (spec.md §4.4.1). The bool return is false when
// the discipline has no override and the generic rule should be used.
func (lo *LoadOrder) disciplineInsertPosition(p *plugin.Plugin) (int, bool) {
	switch lo.discipline {
	case game.Textfile:
		if p.NameMatches(lo.settings.MasterFile()) {
			return 0, true
		}
		return 0, false
	case game.Asterisk:
		return lo.asteriskInsertPosition(p)
	case game.OpenMWDiscipline:
		return 0, false // the core inserts in scan order; apply_load_order reorders afterwards.
	default:
		return 0, false
	}
}

func (lo *LoadOrder) disciplineLoad() error {
	switch lo.discipline {
	case game.Timestamp:
		return lo.timestampLoad()
	case game.Textfile:
		return lo.textfileLoad()
	case game.Asterisk:
		return lo.asteriskLoad()
	case game.OpenMWDiscipline:
		return lo.openmwLoad()
	default:
		return nil
	}
}

func (lo *LoadOrder) disciplineSave() error {
	switch lo.discipline {
	case game.Timestamp:
		return lo.timestampSave()
	case game.Textfile:
		return lo.textfileSave()
	case game.Asterisk:
		return lo.asteriskSave()
	case game.OpenMWDiscipline:
		return lo.openmwSave()
	default:
		return nil
	}
}

func (lo *LoadOrder) disciplineIsSelfConsistent() (bool, error) {
	if lo.discipline == game.Textfile {
		return lo.textfileIsSelfConsistent()
	}
	return true, nil
}

func (lo *LoadOrder) disciplineIsAmbiguous() bool {
	switch lo.discipline {
	case game.Timestamp:
		return lo.timestampIsAmbiguous()
	case game.OpenMWDiscipline:
		return lo.openmwIsAmbiguous()
	default:
		return false
	}
}
