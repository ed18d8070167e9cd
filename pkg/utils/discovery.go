package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/picogrid/swarm-foraging/pkg/logger"
	"github.com/picogrid/swarm-foraging/pkg/simulation"
	"gopkg.in/yaml.v3"
)

// DescriptorFile is the file name a simulation directory is recognised by
const DescriptorFile = "simulation.yaml"

// ErrSimulationNotFound is returned by FindSimulation for an unknown name
var ErrSimulationNotFound = errors.New("simulation descriptor not found")

// SimulationInfo is a descriptor and the directory it was found in
type SimulationInfo struct {
	Path   string
	Config simulation.SimulationConfig
}

// DiscoverSimulations scans <root>/cmd for descriptors, sorted by name. The
// root is SWARM_ROOT when set, otherwise the nearest directory holding go.mod.
// Unreadable or invalid descriptors are skipped with a warning.
func DiscoverSimulations() ([]SimulationInfo, error) {
	root, err := projectRoot()
	if err != nil {
		return nil, err
	}
	return discoverIn(filepath.Join(root, "cmd"))
}

func discoverIn(dir string) ([]SimulationInfo, error) {
	var found []SimulationInfo

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && (strings.HasPrefix(d.Name(), ".") || strings.HasPrefix(d.Name(), "_")) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() != DescriptorFile {
			return nil
		}

		info, err := loadDescriptor(path)
		if err != nil {
			logger.Warnf("skipping %s: %v", path, err)
			return nil
		}
		found = append(found, *info)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s for simulations: %w", dir, err)
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Config.Name < found[j].Config.Name })
	return found, nil
}

// FindSimulation returns the descriptor whose name matches
func FindSimulation(name string) (*simulation.SimulationConfig, error) {
	infos, err := DiscoverSimulations()
	if err != nil {
		return nil, err
	}
	for _, info := range infos {
		if info.Config.Name == name {
			cfg := info.Config
			return &cfg, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSimulationNotFound, name)
}

func loadDescriptor(path string) (*SimulationInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor: %w", err)
	}

	var cfg simulation.SimulationConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse descriptor: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid descriptor: %w", err)
	}

	return &SimulationInfo{Path: filepath.Dir(path), Config: cfg}, nil
}

func projectRoot() (string, error) {
	if root := os.Getenv(EnvPrefix + "ROOT"); root != "" {
		return root, nil
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("could not find project root (no go.mod found); set " + EnvPrefix + "ROOT")
		}
		dir = parent
	}
}
