package tuning

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	// Materials a stepped wire may pass under.
	Transparent []string `yaml:"transparent"`
	// Materials whose voxels keep their color when a network is painted.
	SkipBeneath []string `yaml:"skip_beneath"`
	Marker      string   `yaml:"marker"`

	MaxRegionVolume int `yaml:"max_region_volume"`

	RunLogDir string `yaml:"run_log_dir"`
	IndexPath string `yaml:"index_path"`
}

func Defaults() Tuning {
	return Tuning{
		Transparent:     []string{"AIR", "GLASS"},
		SkipBeneath:     []string{"REPEATER", "REPEATER_ON"},
		Marker:          "WOOL",
		MaxRegionVolume: 1 << 21,
	}
}

// Load reads path over Defaults. A missing file yields the defaults.
func Load(path string) (Tuning, error) {
	t := Defaults()
	if path == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return t, nil
	}
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if t.MaxRegionVolume < 0 {
		return t, fmt.Errorf("tuning.yaml: max_region_volume must be >= 0")
	}
	if t.Marker == "" {
		return t, fmt.Errorf("tuning.yaml: marker must be set")
	}
	return t, nil
}
