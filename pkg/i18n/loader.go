package i18n

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// WithYAMLDir loads every {lang}.yaml or {lang}.yml file found in fsys.
// Files of the same language in different directories are merged.
//
//	translations/en.yaml
//	translations/de.yaml
//	translations/admin/en.yml
func WithYAMLDir(fsys fs.FS) Option {
	return func(c *Catalog) error {
		return fs.WalkDir(fsys, ".", func(name string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}

			ext := strings.ToLower(path.Ext(name))
			if ext != ".yaml" && ext != ".yml" {
				return nil
			}

			data, err := fs.ReadFile(fsys, name)
			if err != nil {
				return fmt.Errorf("i18n: read %q: %w", name, err)
			}

			var messages map[string]any
			if err := yaml.Unmarshal(data, &messages); err != nil {
				return fmt.Errorf("%w: parsing %q: %s", ErrInvalidFile, name, err)
			}

			c.add(strings.TrimSuffix(path.Base(name), path.Ext(name)), messages)
			return nil
		})
	}
}
