package codec

import (
	"encoding/json"
	"fmt"
	"io"

	rexster "github.com/saulfrancisco-ruizacevedo/go-rexster"
)

// JSONCodec exports snapshots as indented JSON.
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// Export writes snap as JSON
func (c *JSONCodec) Export(snap *rexster.Snapshot, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(snap); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
