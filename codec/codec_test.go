package codec

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	rexster "github.com/saulfrancisco-ruizacevedo/go-rexster"
)

func sampleSnapshot() *rexster.Snapshot {
	return &rexster.Snapshot{
		Graph: "tinkergraph",
		Nodes: []*rexster.SnapshotNode{
			{ID: "1", Properties: map[string]any{"name": "marko"}},
			{ID: "3", Properties: map[string]any{"name": "lop", "lang": "java"}},
		},
		Edges: []*rexster.SnapshotEdge{
			{ID: "9", Source: "1", Target: "3", Label: "created", Properties: map[string]any{}},
		},
	}
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		format  string
		want    string
		wantErr bool
	}{
		{format: "json", want: "json"},
		{format: "yaml", want: "yaml"},
		{format: "yml", want: "yaml"},
		{format: "graphml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			e, err := ForFormat(tt.format)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error for unknown format")
				}
				if !strings.Contains(err.Error(), "json") {
					t.Errorf("error should list the known formats, got %q", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if e.Format() != tt.want {
				t.Errorf("expected format %s, got %s", tt.want, e.Format())
			}
		})
	}
}

func TestFormats(t *testing.T) {
	if diff := cmp.Diff([]string{"json", "yaml", "yml"}, Formats()); diff != "" {
		t.Errorf("unexpected formats (-want +got):\n%s", diff)
	}
}

func TestJSONCodec_Export(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONCodec().Export(sampleSnapshot(), &buf); err != nil {
		t.Fatalf("export: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}

	want := map[string]any{
		"graph": "tinkergraph",
		"nodes": []any{
			map[string]any{"id": "1", "properties": map[string]any{"name": "marko"}},
			map[string]any{"id": "3", "properties": map[string]any{"name": "lop", "lang": "java"}},
		},
		"edges": []any{
			map[string]any{"id": "9", "source": "1", "target": "3", "label": "created", "properties": map[string]any{}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected JSON document (-want +got):\n%s", diff)
	}

	if !strings.Contains(buf.String(), "\n  \"graph\"") {
		t.Errorf("expected indented output, got:\n%s", buf.String())
	}
}

func TestYAMLCodec_Export(t *testing.T) {
	var buf bytes.Buffer
	if err := NewYAMLCodec().Export(sampleSnapshot(), &buf); err != nil {
		t.Fatalf("export: %v", err)
	}

	var got rexster.Snapshot
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	if diff := cmp.Diff(sampleSnapshot(), &got); diff != "" {
		t.Errorf("unexpected YAML document (-want +got):\n%s", diff)
	}
	if !strings.HasPrefix(buf.String(), "graph: tinkergraph\n") {
		t.Errorf("expected graph first, got:\n%s", buf.String())
	}
}
