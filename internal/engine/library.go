package engine

// #region imports
import (
	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/config"
	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/signals"
)

// #endregion

// #region library

// LoadLibrary reads every template referenced by the configured context
// specs, keyed so each context's entries stay distinct even when two
// contexts share a file name.
func LoadLibrary(cfg config.Config) (map[string]signals.Template, error) {
	files := make(map[string]signals.TemplateFile)
	for label, spec := range cfg.Contexts {
		for _, ref := range spec.Templates {
			files[templateID(label, ref)] = signals.TemplateFile{
				File:      ref.File,
				Threshold: ref.Threshold,
			}
		}
	}
	if len(files) == 0 {
		return map[string]signals.Template{}, nil
	}
	return signals.LoadLibrary(cfg.TemplateDir, files)
}

// #endregion library
