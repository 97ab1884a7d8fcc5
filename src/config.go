package dalmatian

/*------------------------------------------------------------------
 *
 * Purpose:	Driver and server configuration.
 *
 * Description:	One small YAML file: which gpiochip, which line
 *		offsets, whether the front end inverts, where the
 *		control server listens and where edge traces go.
 *		When no path is given the usual spots are tried in
 *		order.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration.
type Config struct {
	Chip      string `yaml:"chip"`
	LineIn    int    `yaml:"line_in"`
	LineOut   int    `yaml:"line_out"`
	InvertIn  bool   `yaml:"invert_in"`
	InvertOut bool   `yaml:"invert_out"`
	Listen    string `yaml:"listen"`
	TraceDir  string `yaml:"trace_dir"`
}

// DefaultConfig matches the reference hardware: a transistor level
// shifter on both directions, so both inversions are on.
func DefaultConfig() Config {
	return Config{
		Chip:      "gpiochip0",
		LineIn:    23,
		LineOut:   24,
		InvertIn:  true,
		InvertOut: true,
		Listen:    ":8423",
	}
}

var configSearchPath = []string{
	"dalmatian.yaml",      // current working directory
	"/etc/dalmatian.yaml", // system install
}

// LoadConfig reads the configuration from path, or from the first
// file on the search path when path is empty.  Missing files on the
// search path are not an error; defaults apply.
func LoadConfig(path string) (Config, error) {
	var cfg = DefaultConfig()
	if path == "" {
		for _, p := range configSearchPath {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
		if path == "" {
			return cfg, nil
		}
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// OpenLine opens the GPIO line the configuration names.
func (c Config) OpenLine() (Line, error) {
	return OpenGPIOLine(c.Chip, c.LineIn, c.LineOut, c.InvertIn, c.InvertOut)
}
