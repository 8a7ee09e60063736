package kmc

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RunConfig describes a full simulation run loaded from YAML: lattice
// geometry, the process library, and RNG selection. All top-level
// sections must be listed to satisfy strict field decoding.
type RunConfig struct {
	Lattice   LatticeConfig   `yaml:"lattice"`
	RNG       RNGConfig       `yaml:"rng"`
	Processes []ProcessConfig `yaml:"processes"`
	Types     map[string]int  `yaml:"types"`
	Horizon   int             `yaml:"horizon_steps"`
	Initial   [][]string      `yaml:"initial"` // per-site occupant list, in LatticeMap index order (basis offset fastest)
	MSD       *MSDConfig      `yaml:"msd"`     // nil disables the observable
}

// BuildInitialConfiguration materializes a Configuration over lm from
// rc.Initial: one occupant list per global lattice index, in the same
// (i, j, k, basis) order LatticeMap uses for indices. The fractional
// coordinate of each site is its (i, j, k) cell origin; intra-cell basis
// offsets are assumed already folded into the process geometry, matching
// how the process library's own coordinates are authored.
func (rc *RunConfig) BuildInitialConfiguration(lm *LatticeMap) (*Configuration, error) {
	if len(rc.Initial) != lm.NumSites() {
		return nil, fmt.Errorf("%w: initial configuration has %d sites, lattice has %d",
			ErrInvalidConfiguration, len(rc.Initial), lm.NumSites())
	}
	coords := make([]Coordinate, lm.NumSites())
	for idx := range coords {
		i, j, k := lm.IndexToCell(idx)
		coords[idx] = NewCoordinate(float64(i), float64(j), float64(k))
	}
	return NewConfiguration(coords, rc.Initial, rc.Types), nil
}

// LatticeConfig describes the lattice geometry of a run.
type LatticeConfig struct {
	Basis       int     `yaml:"basis"`
	Repetitions [3]int  `yaml:"repetitions"`
	Periodic    [3]bool `yaml:"periodic"`
}

// MSDConfig enables the on-the-fly mean-squared-displacement observable
// for one tracked element type. ABCToXYZ holds, row-major, the Cartesian
// images of the a, b, c lattice basis vectors; a zero matrix means the
// lattice basis is already Cartesian (identity transform).
type MSDConfig struct {
	TrackType    string        `yaml:"track_type"`
	HistorySteps int           `yaml:"history_steps"`
	Bins         int           `yaml:"bins"`
	TMax         float64       `yaml:"t_max"`
	BlockSize    int           `yaml:"blocksize"`
	ABCToXYZ     [3][3]float64 `yaml:"abc_to_xyz"`
}

// BasisRows returns the abc->xyz transform as a flat row-major slice,
// substituting the identity when the configured matrix is all zero.
func (mc *MSDConfig) BasisRows() []float64 {
	zero := true
	for _, row := range mc.ABCToXYZ {
		for _, v := range row {
			if v != 0 {
				zero = false
			}
		}
	}
	if zero {
		return []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}
	}
	out := make([]float64, 0, 9)
	for _, row := range mc.ABCToXYZ {
		out = append(out, row[0], row[1], row[2])
	}
	return out
}

// RNGConfig selects and seeds the pluggable pseudo-random source.
type RNGConfig struct {
	Type     string `yaml:"type"`
	Seed     int64  `yaml:"seed"`
	TimeSeed bool   `yaml:"time_seed"`
}

// ProcessConfig describes one process library entry: a named local
// before/after geometry, basis site applicability, rate, and optional
// atom-id move bindings.
type ProcessConfig struct {
	Name           string       `yaml:"name"`
	Rate           float64      `yaml:"rate"`
	Kind           string       `yaml:"kind"` // "fixed" or "custom"
	CacheRate      bool         `yaml:"cache_rate"`
	BasisSites     []int        `yaml:"basis_sites"`
	Coordinates    [][3]float64 `yaml:"coordinates"`
	ElementsBefore [][]string   `yaml:"elements_before"`
	ElementsAfter  [][]string   `yaml:"elements_after"`
	MoveOrigins    []int        `yaml:"move_origins"`
	MoveVectors    [][3]float64 `yaml:"move_vectors"`
}

// LoadRunConfig reads and strictly decodes a RunConfig from a YAML file,
// rejecting unknown fields so a typo in a config key surfaces immediately
// rather than silently falling back to a zero value.
func LoadRunConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("kmc: reading config %s: %w", path, err)
	}

	var cfg RunConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("kmc: parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

// BuildProcess materializes a ProcessConfig into a Process bound to
// before/after local configurations built from its coordinates and
// element lists.
func (pc ProcessConfig) BuildProcess(possibleTypes map[string]int, processNumber int) (*Process, error) {
	if len(pc.Coordinates) != len(pc.ElementsBefore) || len(pc.Coordinates) != len(pc.ElementsAfter) {
		return nil, fmt.Errorf("%w: process %q has mismatched coordinate/element counts", ErrInvalidConfiguration, pc.Name)
	}

	coords := make([]Coordinate, len(pc.Coordinates))
	for i, c := range pc.Coordinates {
		coords[i] = NewCoordinate(c[0], c[1], c[2])
	}

	before := NewConfiguration(coords, pc.ElementsBefore, possibleTypes)
	after := NewConfiguration(coords, pc.ElementsAfter, possibleTypes)

	moveVectors := make([]Coordinate, len(pc.MoveVectors))
	for i, v := range pc.MoveVectors {
		moveVectors[i] = NewCoordinate(v[0], v[1], v[2])
	}

	if pc.Kind == "custom" {
		return NewCustomRateProcess(before, after, pc.BasisSites, pc.MoveOrigins, moveVectors, processNumber, nil, pc.CacheRate), nil
	}
	return NewProcess(before, after, pc.Rate, pc.BasisSites, pc.MoveOrigins, moveVectors, processNumber), nil
}
