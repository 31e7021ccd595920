package bank

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/config"
)

type registryFile struct {
	Banks []Definition `yaml:"banks"`
}

// LoadFile reads bank definitions from a YAML file of the form:
//
//	banks:
//	  - canonical_name: HDFC
//	    display_name: HDFC Bank
//	    aliases: [HDFCBK]
//	    rules:
//	      balance: 'avl\s*bal\s*rs\.?\s*([0-9,.]+)'
func LoadFile(path string) ([]Definition, error) {
	expanded := config.ExpandPath(path)

	data, err := os.ReadFile(expanded) //nolint:gosec // Path comes from user configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file %s: %w", expanded, err)
	}

	defs, err := decodeDefinitions(data)
	if err != nil {
		return nil, fmt.Errorf("registry file %s: %w", expanded, err)
	}
	return defs, nil
}

func decodeDefinitions(data []byte) ([]Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var file registryFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidConfig, err)
	}
	return file.Banks, nil
}

// MergeDefinitions layers overlay on base. An overlay entry whose canonical name
// already exists replaces the base entry in place; new names are appended.
func MergeDefinitions(base, overlay []Definition) []Definition {
	out := make([]Definition, len(base))
	copy(out, base)

	index := make(map[string]int, len(out))
	for i, def := range out {
		index[strings.ToUpper(strings.TrimSpace(def.CanonicalName))] = i
	}

	for _, def := range overlay {
		key := strings.ToUpper(strings.TrimSpace(def.CanonicalName))
		if i, ok := index[key]; ok {
			out[i] = def
			continue
		}
		index[key] = len(out)
		out = append(out, def)
	}
	return out
}

// LoadRegistry builds the built-in registry, layering the YAML file at path over it
// when path is set.
func LoadRegistry(path string) (*Registry, error) {
	defs := DefaultDefinitions()

	if path != "" {
		overlay, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		slog.Debug("Loaded bank registry overlay", "path", path, "banks", len(overlay))
		defs = MergeDefinitions(defs, overlay)
	}

	return NewRegistry(defs)
}
