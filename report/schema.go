package report

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// Schema returns the JSON Schema of Record as emitted by the JSON writer.
func Schema() ([]byte, error) {
	r := &jsonschema.Reflector{
		ExpandedStruct: true,
		DoNotReference: true,
	}
	s := r.Reflect(&Record{})
	s.Title = "pwcet-safety result"
	s.Description = "Smallest mean load quantile that keeps the no-violation probability above the target."
	return json.MarshalIndent(s, "", "  ")
}
