package viz

import (
	"fmt"

	"gonum.org/v1/gonum/graph/encoding/dot"

	"github.com/neurolab/braincycle-go/brain/connectome"
)

// MarshalDOT exports the connectome in Graphviz DOT format. Region
// labels become node IDs and synapses carry weight and kind attributes,
// so `dot -Tpdf` renders a publication-ready diagram directly.
func MarshalDOT(g *connectome.Graph, name string) ([]byte, error) {
	b, err := dot.Marshal(g, name, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal dot: %w", err)
	}
	return b, nil
}
