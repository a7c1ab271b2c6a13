package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/declmig/declmig/schema"
)

type modelFile struct {
	Models []schema.Model `yaml:"models"`
}

// Load merges the layered model definitions under basePath into one
// consolidated model set. Merge order is template, then domain, then
// shared; later layers override earlier ones per model name. The domain
// layer is itself the flat domain file merged with one file per domain
// subdirectory. Missing files or directories at any layer are treated as
// empty, never as an error, and the result is deterministic for identical
// inputs.
func Load(basePath, fileName string) ([]schema.Model, error) {
	merged := map[string]schema.Model{}

	layers := [][]string{
		{filepath.Join(basePath, "template", fileName)},
		nil, // domain, filled below
		{filepath.Join(basePath, "shared", fileName)},
	}

	domain, err := domainFiles(filepath.Join(basePath, "domain"), fileName)
	if err != nil {
		return nil, err
	}
	layers[1] = domain

	for _, layer := range layers {
		for _, path := range layer {
			models, err := readModelFile(path)
			if err != nil {
				return nil, err
			}
			for _, m := range models {
				merged[m.Name] = m
			}
		}
	}

	names := make([]string, 0, len(merged))
	for name := range merged {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]schema.Model, 0, len(names))
	for _, name := range names {
		result = append(result, merged[name])
	}
	return result, nil
}

// domainFiles lists the flat domain file followed by one file per domain
// subdirectory, subdirectories in sorted order so the merge is stable.
func domainFiles(domainDir, fileName string) ([]string, error) {
	files := []string{filepath.Join(domainDir, fileName)}

	entries, err := os.ReadDir(domainDir)
	if err != nil {
		if os.IsNotExist(err) {
			return files, nil
		}
		return nil, fmt.Errorf("reading domain directory: %v", err)
	}

	var subdirs []string
	for _, e := range entries {
		if e.IsDir() {
			subdirs = append(subdirs, e.Name())
		}
	}
	sort.Strings(subdirs)

	for _, d := range subdirs {
		files = append(files, filepath.Join(domainDir, d, fileName))
	}
	return files, nil
}

func readModelFile(path string) ([]schema.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading model file %s: %v", path, err)
	}

	var mf modelFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("unmarshalling %s: %v", path, err)
	}
	return mf.Models, nil
}
