package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// LoadTOML loads configuration from a TOML file.
// Keys that do not map to a field are rejected.
func LoadTOML(path string, target interface{}) error {
	meta, err := toml.DecodeFile(path, target)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file %s: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return fmt.Errorf("unknown TOML keys in %s: %s", path, strings.Join(keys, ", "))
	}

	return nil
}
