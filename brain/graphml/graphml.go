// Package graphml reads and writes connectomes in GraphML, the exchange
// format most connectome datasets ship in.
//
// The decoder is tolerant in the ways recorded datasets demand: node
// labels come from the node id attribute, edge weights default to 1.0
// when absent (counted in the DecodeReport), and unknown data keys are
// ignored. The encoder always writes directed graphs with explicit
// weight and kind attributes.
package graphml

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/neurolab/braincycle-go/brain/connectome"
)

// document mirrors the GraphML XML structure closely enough for both
// decoding and re-encoding during repair.
type document struct {
	XMLName xml.Name   `xml:"graphml"`
	Xmlns   string     `xml:"xmlns,attr,omitempty"`
	Keys    []keyDef   `xml:"key"`
	Graph   graphElem  `xml:"graph"`
}

type keyDef struct {
	ID       string `xml:"id,attr"`
	For      string `xml:"for,attr"`
	AttrName string `xml:"attr.name,attr"`
	AttrType string `xml:"attr.type,attr"`
}

type graphElem struct {
	ID          string     `xml:"id,attr,omitempty"`
	EdgeDefault string     `xml:"edgedefault,attr"`
	Nodes       []nodeElem `xml:"node"`
	Edges       []edgeElem `xml:"edge"`
}

type nodeElem struct {
	ID   string     `xml:"id,attr"`
	Data []dataElem `xml:"data"`
}

type edgeElem struct {
	Source string `xml:"source,attr"`
	Target string `xml:"target,attr"`

	// Directed overrides the graph's edgedefault for this edge
	// ("true", "false", or empty for the default).
	Directed string     `xml:"directed,attr,omitempty"`
	Data     []dataElem `xml:"data"`
}

// isDirected resolves the edge's effective directedness against the
// graph's edgedefault.
func (e edgeElem) isDirected(defaultDirected bool) bool {
	switch e.Directed {
	case "true":
		return true
	case "false":
		return false
	default:
		return defaultDirected
	}
}

type dataElem struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

// DecodeReport describes liberties the decoder took with the input.
type DecodeReport struct {
	// DefaultedWeights counts edges with no weight attribute, which were
	// assigned weight 1.0.
	DefaultedWeights int

	// SelfLoops counts edges whose source and target are the same region.
	// Connectomes exclude self-connections, so these edges are skipped
	// rather than failing the file.
	SelfLoops int

	// Directed reports whether the source graph declared
	// edgedefault="directed". Cycle analysis is only meaningful on
	// directed graphs; callers should reject or repair undirected input.
	Directed bool
}

const xmlnsGraphML = "http://graphml.graphdrawing.org/xmlns"

func parse(r io.Reader) (*document, error) {
	var doc document
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse graphml: %w", err)
	}
	return &doc, nil
}

// isFullyDirected reports whether every edge in the document is
// directed, accounting for per-edge overrides of edgedefault.
func (d *document) isFullyDirected() bool {
	defaultDirected := d.Graph.EdgeDefault == "directed"
	for _, e := range d.Graph.Edges {
		if !e.isDirected(defaultDirected) {
			return false
		}
	}
	return defaultDirected || len(d.Graph.Edges) > 0
}

// keyIDs resolves the data key ids carrying weight and kind attributes.
// Falls back to the literal attribute names, which some exporters use as
// key ids directly.
func (d *document) keyIDs() (weightKey, kindKey string) {
	weightKey, kindKey = "weight", "kind"
	for _, k := range d.Keys {
		if k.For != "" && k.For != "edge" {
			continue
		}
		switch k.AttrName {
		case "weight":
			weightKey = k.ID
		case "kind":
			kindKey = k.ID
		}
	}
	return weightKey, kindKey
}

// Decode reads a GraphML document into a connectome graph.
//
// Edges missing a weight are defaulted to 1.0 and counted in the report.
// Self-loop edges are skipped and counted, since the connectome model
// has no self-connections. Decode does not reject undirected graphs; it
// flags them in the report so the caller can decide between failing and
// repairing.
func Decode(r io.Reader) (*connectome.Graph, DecodeReport, error) {
	var report DecodeReport

	doc, err := parse(r)
	if err != nil {
		return nil, report, err
	}

	report.Directed = doc.isFullyDirected()
	weightKey, kindKey := doc.keyIDs()

	g := connectome.NewGraph()
	for _, n := range doc.Graph.Nodes {
		if n.ID == "" {
			return nil, report, fmt.Errorf("graphml node with empty id")
		}
		g.AddRegion(n.ID)
	}

	for _, e := range doc.Graph.Edges {
		if e.Source == "" || e.Target == "" {
			return nil, report, fmt.Errorf("graphml edge missing source or target")
		}
		if e.Source == e.Target {
			report.SelfLoops++
			continue
		}

		weight := 1.0
		hasWeight := false
		kind := connectome.Excitatory
		for _, d := range e.Data {
			switch d.Key {
			case weightKey:
				w, err := strconv.ParseFloat(d.Value, 64)
				if err != nil {
					return nil, report, fmt.Errorf("edge %s->%s: bad weight %q: %w", e.Source, e.Target, d.Value, err)
				}
				weight = w
				hasWeight = true
			case kindKey:
				kind = connectome.ParseSynapseKind(d.Value)
			}
		}
		if !hasWeight {
			report.DefaultedWeights++
		}

		if err := g.Connect(e.Source, e.Target, weight, kind); err != nil {
			return nil, report, fmt.Errorf("edge %s->%s: %w", e.Source, e.Target, err)
		}
	}

	return g, report, nil
}

// Encode writes the connectome as a directed GraphML document.
func Encode(w io.Writer, g *connectome.Graph) error {
	doc := document{
		Xmlns: xmlnsGraphML,
		Keys: []keyDef{
			{ID: "weight", For: "edge", AttrName: "weight", AttrType: "double"},
			{ID: "kind", For: "edge", AttrName: "kind", AttrType: "string"},
		},
		Graph: graphElem{ID: "connectome", EdgeDefault: "directed"},
	}

	for _, r := range g.Regions() {
		doc.Graph.Nodes = append(doc.Graph.Nodes, nodeElem{ID: r.Label})
	}
	for _, s := range g.Synapses() {
		doc.Graph.Edges = append(doc.Graph.Edges, edgeElem{
			Source: s.F.Label,
			Target: s.T.Label,
			Data: []dataElem{
				{Key: "weight", Value: strconv.FormatFloat(s.W, 'g', -1, 64)},
				{Key: "kind", Value: s.Kind.String()},
			},
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode graphml: %w", err)
	}
	return enc.Close()
}

// CheckDirected reports whether the GraphML document declares a fully
// directed graph, without building the full connectome. A directed
// edgedefault with even one edge overriding directed="false" still
// counts as undirected.
func CheckDirected(r io.Reader) (bool, error) {
	doc, err := parse(r)
	if err != nil {
		return false, err
	}
	return doc.isFullyDirected(), nil
}

// FixUndirected rewrites a GraphML document so every edge is directed:
// each undirected edge (by edgedefault or a directed="false" override)
// gains a reversed twin carrying the same data, and the edgedefault is
// set to directed. Fully directed input passes through unchanged apart
// from formatting.
func FixUndirected(r io.Reader, w io.Writer) error {
	doc, err := parse(r)
	if err != nil {
		return err
	}

	if !doc.isFullyDirected() {
		defaultDirected := doc.Graph.EdgeDefault == "directed"
		fixed := make([]edgeElem, 0, len(doc.Graph.Edges))
		for _, e := range doc.Graph.Edges {
			directed := e.isDirected(defaultDirected)
			e.Directed = ""
			fixed = append(fixed, e)
			if !directed {
				fixed = append(fixed, edgeElem{
					Source: e.Target,
					Target: e.Source,
					Data:   e.Data,
				})
			}
		}
		doc.Graph.EdgeDefault = "directed"
		doc.Graph.Edges = fixed
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode graphml: %w", err)
	}
	return enc.Close()
}
