package kmc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRunConfigYAML = `
lattice:
  basis: 1
  repetitions: [2, 1, 1]
  periodic: [true, true, true]
rng:
  type: mt
  seed: 7
  time_seed: false
types:
  V: 1
  A: 2
horizon_steps: 100
initial:
  - [V]
  - [A]
processes:
  - name: hop
    rate: 1.5
    kind: fixed
    basis_sites: [0]
    coordinates:
      - [0, 0, 0]
      - [1, 0, 0]
    elements_before:
      - [V]
      - [A]
    elements_after:
      - [A]
      - [V]
    move_origins: [0, 1]
    move_vectors:
      - [1, 0, 0]
      - [-1, 0, 0]
msd:
  track_type: A
  history_steps: 4
  bins: 10
  t_max: 25.0
  blocksize: 8
`

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadRunConfig_ParsesAllSections(t *testing.T) {
	path := writeTempConfig(t, sampleRunConfigYAML)

	cfg, err := LoadRunConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Lattice.Basis)
	assert.Equal(t, [3]int{2, 1, 1}, cfg.Lattice.Repetitions)
	assert.Equal(t, [3]bool{true, true, true}, cfg.Lattice.Periodic)
	assert.Equal(t, "mt", cfg.RNG.Type)
	assert.Equal(t, int64(7), cfg.RNG.Seed)
	assert.Equal(t, 100, cfg.Horizon)
	assert.Equal(t, map[string]int{"V": 1, "A": 2}, cfg.Types)
	require.Len(t, cfg.Processes, 1)
	assert.Equal(t, "hop", cfg.Processes[0].Name)
	require.NotNil(t, cfg.MSD)
	assert.Equal(t, "A", cfg.MSD.TrackType)
	assert.Equal(t, 4, cfg.MSD.HistorySteps)
	assert.Equal(t, 10, cfg.MSD.Bins)
	assert.Equal(t, 25.0, cfg.MSD.TMax)
	assert.Equal(t, 8, cfg.MSD.BlockSize)
}

func TestMSDConfig_BasisRows_ZeroMatrixFallsBackToIdentity(t *testing.T) {
	mc := &MSDConfig{}
	assert.Equal(t, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}, mc.BasisRows())

	mc.ABCToXYZ = [3][3]float64{{2, 0, 0}, {0, 2, 0}, {0, 0, 2}}
	assert.Equal(t, []float64{2, 0, 0, 0, 2, 0, 0, 0, 2}, mc.BasisRows())
}

func TestLoadRunConfig_RejectsUnknownFields(t *testing.T) {
	path := writeTempConfig(t, sampleRunConfigYAML+"\nbogus_field: 1\n")
	_, err := LoadRunConfig(path)
	assert.Error(t, err)
}

func TestLoadRunConfig_MissingFileReturnsError(t *testing.T) {
	_, err := LoadRunConfig("/nonexistent/path/run.yaml")
	assert.Error(t, err)
}

func TestRunConfig_BuildInitialConfiguration_MatchesLatticeOrder(t *testing.T) {
	path := writeTempConfig(t, sampleRunConfigYAML)
	cfg, err := LoadRunConfig(path)
	require.NoError(t, err)

	lm := NewLatticeMap(cfg.Lattice.Basis, cfg.Lattice.Repetitions, cfg.Lattice.Periodic)
	config, err := cfg.BuildInitialConfiguration(lm)
	require.NoError(t, err)

	assert.Equal(t, []string{"V"}, config.Elements[0])
	assert.Equal(t, []string{"A"}, config.Elements[1])
}

func TestRunConfig_BuildInitialConfiguration_SiteCountMismatchErrors(t *testing.T) {
	cfg := &RunConfig{
		Types:   map[string]int{"A": 1},
		Initial: [][]string{{"A"}},
	}
	lm := NewLatticeMap(1, [3]int{2, 1, 1}, [3]bool{true, true, true})
	_, err := cfg.BuildInitialConfiguration(lm)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestProcessConfig_BuildProcess_FixedRate(t *testing.T) {
	pc := ProcessConfig{
		Name:           "hop",
		Rate:           2.0,
		Kind:           "fixed",
		BasisSites:     []int{0},
		Coordinates:    [][3]float64{{0, 0, 0}, {1, 0, 0}},
		ElementsBefore: [][]string{{"V"}, {"A"}},
		ElementsAfter:  [][]string{{"A"}, {"V"}},
		MoveOrigins:    []int{0, 1},
		MoveVectors:    [][3]float64{{1, 0, 0}, {-1, 0, 0}},
	}
	p, err := pc.BuildProcess(chainTypes, 3)
	require.NoError(t, err)
	assert.Equal(t, FixedRate, p.Kind)
	assert.Equal(t, 2.0, p.RateConstant)
	assert.Equal(t, 3, p.ProcessNumber)
	require.Len(t, p.MatchList, 2)
}

func TestProcessConfig_BuildProcess_CustomRateUsesCacheRateFlag(t *testing.T) {
	pc := ProcessConfig{
		Name:           "diffuse",
		Kind:           "custom",
		CacheRate:      true,
		BasisSites:     []int{0},
		Coordinates:    [][3]float64{{0, 0, 0}},
		ElementsBefore: [][]string{{"V"}},
		ElementsAfter:  [][]string{{"V"}},
	}
	p, err := pc.BuildProcess(chainTypes, 1)
	require.NoError(t, err)
	assert.Equal(t, CustomRate, p.Kind)
	assert.True(t, p.CacheRate)
}

func TestProcessConfig_BuildProcess_MismatchedElementCountsErrors(t *testing.T) {
	pc := ProcessConfig{
		Coordinates:    [][3]float64{{0, 0, 0}, {1, 0, 0}},
		ElementsBefore: [][]string{{"V"}},
		ElementsAfter:  [][]string{{"A"}, {"V"}},
	}
	_, err := pc.BuildProcess(chainTypes, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}
