package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"voxelcraft.ai/redstone/internal/circuit/voxel"
)

var ErrUnknownMaterial = errors.New("unknown material")

type Catalogs struct {
	Materials MaterialCatalog
}

type MaterialCatalog struct {
	Names      []string // sorted
	Defs       map[string]MaterialDef
	ByID       map[uint16]MaterialDef
	DefsDigest string
}

type MaterialDef struct {
	ID          string `json:"id"`
	Material    uint16 `json:"material"`
	Transparent bool   `json:"transparent,omitempty"`
	Conductive  bool   `json:"conductive,omitempty"`
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs
	if err := loadMaterials(filepath.Join(configDir, "blocks.json"), &c.Materials); err != nil {
		return nil, err
	}
	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadMaterials(path string, out *MaterialCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return parseMaterials(raw, out)
}

func parseMaterials(raw []byte, out *MaterialCatalog) error {
	out.DefsDigest = sha256Hex(raw)

	var defs []MaterialDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("blocks.json: %w", err)
	}
	out.Defs = map[string]MaterialDef{}
	out.ByID = map[uint16]MaterialDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("blocks.json: empty id")
		}
		if d.Material > 0x0FFF {
			return fmt.Errorf("blocks.json: %s: material %d does not fit 12 bits", d.ID, d.Material)
		}
		if prev, ok := out.ByID[d.Material]; ok {
			return fmt.Errorf("blocks.json: %s and %s share material %d", prev.ID, d.ID, d.Material)
		}
		out.Defs[d.ID] = d
		out.ByID[d.Material] = d
	}

	air, ok := out.Defs["AIR"]
	if !ok {
		return fmt.Errorf("blocks.json: missing AIR")
	}
	if air.Material != voxel.Air {
		return fmt.Errorf("blocks.json: AIR must be material %d", voxel.Air)
	}

	out.Names = make([]string, 0, len(out.Defs))
	for id := range out.Defs {
		out.Names = append(out.Names, id)
	}
	sort.Strings(out.Names)
	return nil
}

// Set resolves material names into a material set.
func (c MaterialCatalog) Set(names []string) (voxel.MaterialSet, error) {
	s := voxel.NewMaterialSet()
	for _, n := range names {
		d, ok := c.Defs[strings.ToUpper(strings.TrimSpace(n))]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMaterial, n)
		}
		s[d.Material] = struct{}{}
	}
	return s, nil
}

// Transparent lists every material flagged transparent.
func (c MaterialCatalog) Transparent() voxel.MaterialSet {
	s := voxel.NewMaterialSet()
	for _, d := range c.Defs {
		if d.Transparent {
			s[d.Material] = struct{}{}
		}
	}
	return s
}

func (c MaterialCatalog) Name(material uint16) string {
	if d, ok := c.ByID[material]; ok {
		return d.ID
	}
	return fmt.Sprintf("MATERIAL_%d", material)
}
