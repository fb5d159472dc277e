// Package identify fuses independent carrier-detection signals into a single
// consensus guess for a document.
package identify

import (
	_ "embed"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/tygershark/shiprecon/internal/model"
)

//go:embed carriers.yaml
var carriersYAML []byte

// LoadRegistry parses the embedded carrier profiles into an indexed registry.
// Called once at startup.
func LoadRegistry() (*model.CarrierRegistry, error) {
	return loadRegistry(carriersYAML)
}

func loadRegistry(data []byte) (*model.CarrierRegistry, error) {
	var doc struct {
		Carriers []model.CarrierProfile `yaml:"carriers"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "identify: parse carrier profiles")
	}
	if len(doc.Carriers) == 0 {
		return nil, eris.New("identify: no carrier profiles defined")
	}
	for i := range doc.Carriers {
		if doc.Carriers[i].ConfidenceCeiling <= 0 {
			doc.Carriers[i].ConfidenceCeiling = 0.9
		}
	}
	return model.NewCarrierRegistry(doc.Carriers), nil
}
