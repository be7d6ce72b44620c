package knowledge

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Pack is a YAML topic pack: extra or replacement topics for one of the
// built-in topic providers.
//
//	provider: medicare_info
//	topics:
//	  "part b premium appeals": |
//	    You can appeal an IRMAA determination using form SSA-44...
type Pack struct {
	Provider string            `yaml:"provider"`
	Topics   map[string]string `yaml:"topics"`
}

// LoadPacks merges topic packs from dir into the matching providers.
// Files must have a .yaml or .yml extension. A missing directory is not
// an error.
func LoadPacks(dir string, providers map[string]*TopicProvider, logger *slog.Logger) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		logger.Debug("knowledge pack directory does not exist, skipping", "dir", dir)
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read knowledge pack dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("cannot read knowledge pack", "path", path, "err", err)
			continue
		}

		var pack Pack
		if err := yaml.Unmarshal(data, &pack); err != nil {
			logger.Warn("cannot parse knowledge pack", "path", path, "err", err)
			continue
		}

		target, ok := providers[pack.Provider]
		if !ok {
			logger.Warn("knowledge pack names unknown provider", "path", path, "provider", pack.Provider)
			continue
		}
		if len(pack.Topics) == 0 {
			logger.Warn("knowledge pack has no topics", "path", path)
			continue
		}

		target.Merge(pack.Topics)
		logger.Info("loaded knowledge pack", "path", path, "provider", pack.Provider, "topics", len(pack.Topics))
	}

	return nil
}
