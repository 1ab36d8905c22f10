package gcal

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Settings is the optional config.yaml in the config directory.
type Settings struct {
	CalendarID string `yaml:"calendar_id,omitempty"`
	NoColor    bool   `yaml:"no_color,omitempty"`
}

// LoadSettings reads config.yaml. A missing file yields defaults; a present
// but malformed file is an error, since silently ignoring it would mask
// typos.
func LoadSettings(path string) (Settings, error) {
	var s Settings
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, errors.Wrap(err, "reading settings")
	}
	if err := yaml.Unmarshal(b, &s); err != nil {
		return s, errors.Wrap(err, "parsing settings")
	}
	return s, nil
}
