// Package mirror copies a Rexster graph into Neo4j.
//
// Every Rexster vertex becomes a node carrying one label and a rexsterId
// property holding the Rexster id; every edge becomes a relationship whose
// type is the edge label. Vertices are MERGEd on rexsterId, so replicating
// twice updates nodes in place. Relationships are CREATEd; use WithReset to
// start from an empty label.
package mirror

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/pkg/errors"
	"github.com/saulfrancisco-ruizacevedo/gocypher"

	rexster "github.com/saulfrancisco-ruizacevedo/go-rexster"
)

// IDProperty is the node/relationship property holding the Rexster id.
const IDProperty = "rexsterId"

// defaultRelType is used for edges without a label.
const defaultRelType = "RELATED"

// ErrNotMirrored is returned by Node when no node carries the requested id.
var ErrNotMirrored = errors.New("vertex not mirrored")

// quote renders name as an escaped Cypher identifier. Labels, relationship
// types and property keys come from the Rexster server, so none of them is
// written into a query bare.
func quote(name string) (string, error) {
	if name == "" {
		return "", errors.New("empty cypher identifier")
	}
	if strings.ContainsAny(name, "\\\x00") {
		return "", errors.Errorf("cypher identifier %q contains a backslash or NUL", name)
	}
	return "`" + strings.ReplaceAll(name, "`", "``") + "`", nil
}

// quoteKeys returns props with every key quoted.
func quoteKeys(props map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(props))
	for key, value := range props {
		q, err := quote(key)
		if err != nil {
			return nil, err
		}
		out[q] = value
	}
	return out, nil
}

// Mirror replicates graphs into the database behind a DBRunner.
type Mirror struct {
	runner DBRunner
	label  string
	reset  bool
	logger *slog.Logger
}

// Option configures a Mirror.
type Option func(*Mirror)

// WithLabel sets the node label used for mirrored vertices.
func WithLabel(label string) Option {
	return func(m *Mirror) {
		m.label = label
	}
}

// WithReset makes Replicate detach-delete every node with the mirror label
// before copying.
func WithReset(reset bool) Option {
	return func(m *Mirror) {
		m.reset = reset
	}
}

// WithLogger sets the logger reporting per-element failures.
func WithLogger(l *slog.Logger) Option {
	return func(m *Mirror) {
		if l != nil {
			m.logger = l
		}
	}
}

// New creates a Mirror writing through runner.
func New(runner DBRunner, opts ...Option) *Mirror {
	m := &Mirror{
		runner: runner,
		label:  "RexsterVertex",
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Report counts what a Replicate call wrote.
type Report struct {
	Vertices int
	Edges    int
	Failed   int
}

// Replicate copies every vertex, then every edge, of g. A failure to list a
// collection aborts the run. A failure to write one element is recorded and
// the run goes on.
//
// Parameters:
//   - ctx: Bounds every Rexster request and every Cypher statement.
//   - g: The graph to copy.
//
// Returns:
//   - The counts of written and failed elements. It is never nil, even on error.
//   - A *multierror.Error holding one entry per failed element, or the error
//     that aborted the run.
func (m *Mirror) Replicate(ctx context.Context, g *rexster.Graph) (*Report, error) {
	report := &Report{}

	if m.reset {
		if err := m.clear(ctx); err != nil {
			return report, err
		}
	}

	var merr *multierror.Error

	vertices, err := g.Vertices(ctx)
	if err != nil {
		return report, errors.Wrap(err, "list vertices")
	}
	for vertices.Next(ctx) {
		v := vertices.Value()
		if err := m.writeVertex(ctx, v); err != nil {
			report.Failed++
			m.logger.Warn("failed to mirror vertex", "id", v.ID(), "error", err)
			merr = multierror.Append(merr, errors.Wrapf(err, "vertex %s", v.ID()))
			continue
		}
		report.Vertices++
	}
	if err := vertices.Err(); err != nil {
		return report, errors.Wrap(err, "walk vertices")
	}

	edges, err := g.Edges(ctx)
	if err != nil {
		return report, errors.Wrap(err, "list edges")
	}
	for edges.Next(ctx) {
		e := edges.Value()
		if err := m.writeEdge(ctx, e); err != nil {
			report.Failed++
			m.logger.Warn("failed to mirror edge", "id", e.ID(), "error", err)
			merr = multierror.Append(merr, errors.Wrapf(err, "edge %s", e.ID()))
			continue
		}
		report.Edges++
	}
	if err := edges.Err(); err != nil {
		return report, errors.Wrap(err, "walk edges")
	}

	return report, merr.ErrorOrNil()
}

func (m *Mirror) clear(ctx context.Context) error {
	label, err := quote(m.label)
	if err != nil {
		return errors.Wrap(err, "reset mirror label")
	}
	query, params, err := gocypher.NewQueryBuilder().
		Match(gocypher.N("n", label)).
		DetachDelete("n").
		Build()
	if err != nil {
		return err
	}
	_, err = m.runner.Run(ctx, query, params)
	return errors.Wrap(err, "reset mirror label")
}

// writeVertex MERGEs the node on its Rexster id and SETs the user properties.
func (m *Mirror) writeVertex(ctx context.Context, v *rexster.Vertex) error {
	label, err := quote(m.label)
	if err != nil {
		return err
	}
	mergeProps, err := quoteKeys(map[string]interface{}{IDProperty: v.ID()})
	if err != nil {
		return err
	}

	setProps := make(map[string]interface{})
	for key, value := range rexster.UserProperties(v.Properties()) {
		q, err := quote(key)
		if err != nil {
			return err
		}
		// The property is prefixed with 'n.' for the SET clause.
		setProps["n."+q] = value
	}

	qb := gocypher.NewQueryBuilder().
		Merge(gocypher.N("n", label).WithProperties(mergeProps))
	if len(setProps) > 0 {
		qb = qb.Set(setProps)
	}
	query, params, err := qb.Return("n").Build()
	if err != nil {
		return err
	}
	_, err = m.runner.Run(ctx, query, params)
	return err
}

// writeEdge matches both endpoint nodes and creates the relationship between
// them.
func (m *Mirror) writeEdge(ctx context.Context, e *rexster.Edge) error {
	label, err := quote(m.label)
	if err != nil {
		return err
	}
	relType := e.Label()
	if relType == "" {
		relType = defaultRelType
	}
	if relType, err = quote(relType); err != nil {
		return err
	}
	props := rexster.UserProperties(e.Properties())
	props[IDProperty] = e.ID()
	relProps, err := quoteKeys(props)
	if err != nil {
		return err
	}
	outProps, err := quoteKeys(map[string]interface{}{IDProperty: e.OutVertexID()})
	if err != nil {
		return err
	}
	inProps, err := quoteKeys(map[string]interface{}{IDProperty: e.InVertexID()})
	if err != nil {
		return err
	}

	qb := gocypher.NewQueryBuilder().
		Match(gocypher.N("a", label).WithProperties(outProps)).
		Match(gocypher.N("b", label).WithProperties(inProps)).
		Create(
			gocypher.NRef("a"),
			gocypher.R("r", relType).To().WithProperties(relProps),
			gocypher.NRef("b"),
		)

	query, params, err := qb.Build()
	if err != nil {
		return err
	}
	_, err = m.runner.Run(ctx, query, params)
	return err
}

// Node reads back the node mirrored from the Rexster vertex id.
func (m *Mirror) Node(ctx context.Context, id string) (neo4j.Node, error) {
	label, err := quote(m.label)
	if err != nil {
		return neo4j.Node{}, err
	}
	props, err := quoteKeys(map[string]interface{}{IDProperty: id})
	if err != nil {
		return neo4j.Node{}, err
	}
	query, params, err := gocypher.NewQueryBuilder().
		Match(gocypher.N("n", label).WithProperties(props)).
		Return("n").
		Build()
	if err != nil {
		return neo4j.Node{}, err
	}

	result, err := m.runner.Run(ctx, query, params)
	if err != nil {
		return neo4j.Node{}, err
	}
	if len(result.Records) == 0 {
		return neo4j.Node{}, ErrNotMirrored
	}
	if len(result.Records) > 1 {
		// rexsterId is MERGEd on, so duplicates mean the label is shared with other data.
		return neo4j.Node{}, fmt.Errorf("expected 1 node for %s %s but found %d", IDProperty, id, len(result.Records))
	}

	value, ok := result.Records[0].Get("n")
	if !ok {
		return neo4j.Node{}, fmt.Errorf("could not find return value 'n' in query result")
	}
	node, ok := value.(neo4j.Node)
	if !ok {
		return neo4j.Node{}, fmt.Errorf("return value 'n' is not a node")
	}
	return node, nil
}
