package am

import (
	"github.com/BurntSushi/toml"
	"github.com/teranos/lineage/errors"
)

// CheckFile decodes a config file strictly and returns the keys it sets that
// lineage does not know about. Viper ignores such keys silently, so a typo
// like "blueprint.pth" would otherwise go unnoticed.
func CheckFile(path string) ([]string, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", path)
	}

	var unknown []string
	for _, key := range md.Undecoded() {
		unknown = append(unknown, key.String())
	}
	return unknown, nil
}

// CheckLoadedFiles runs CheckFile over every config file the last load merged.
func CheckLoadedFiles() (map[string][]string, error) {
	if _, err := Load(); err != nil {
		return nil, err
	}

	mu.Lock()
	paths := make(map[string]bool)
	for _, si := range ConfigSources {
		paths[si.Path] = true
	}
	mu.Unlock()

	result := make(map[string][]string)
	for path := range paths {
		unknown, err := CheckFile(path)
		if err != nil {
			return nil, err
		}
		if len(unknown) > 0 {
			result[path] = unknown
		}
	}
	return result, nil
}
