package resource

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

func LoadResourcesFromDir(dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.yml"))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no resource definitions found in %s", dir)
	}

	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		var desc Descriptor
		if err := yaml.Unmarshal(data, &desc); err != nil {
			return fmt.Errorf("YAML parse error in %s: %w", path, err)
		}

		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		desc.Name = name
		if desc.Table == "" {
			desc.Table = name
		}
		Registry[name] = &desc
	}
	return nil
}
