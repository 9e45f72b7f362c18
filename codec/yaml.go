package codec

import (
	"fmt"
	"io"

	rexster "github.com/saulfrancisco-ruizacevedo/go-rexster"

	"gopkg.in/yaml.v3"
)

// YAMLCodec exports snapshots as YAML.
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// Export writes snap as YAML
func (c *YAMLCodec) Export(snap *rexster.Snapshot, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(snap); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return nil
}
