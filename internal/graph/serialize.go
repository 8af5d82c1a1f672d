package graph

import "encoding/json"

// wireNode is the JSON shape of one node in the serialized graph: fields
// are exported so encoding/json can see them, but the wire names are
// lowercased to match spec's stable shape.
type wireNode struct {
	Version  string            `json:"version"`
	Payload  string            `json:"payload"`
	Metadata map[string]string `json:"metadata"`
}

type wireGraph struct {
	Nodes []wireNode `json:"nodes"`
	Edges [][2]int   `json:"edges"`
}

// Serialize produces the stable JSON document described in spec §4.A:
// nodes in insertion order, edges referencing the indices of the emitted
// node array.
func (g *Graph) Serialize() ([]byte, error) {
	wg := wireGraph{
		Nodes: make([]wireNode, 0, len(g.order)),
		Edges: make([][2]int, 0),
	}

	index := make(map[ReleaseID]int, len(g.order))
	for i, id := range g.order {
		index[id] = i
		rel := g.nodes[id]
		meta := make(map[string]string, len(rel.metadata))
		for k, v := range rel.metadata {
			meta[k] = v
		}
		wg.Nodes = append(wg.Nodes, wireNode{Version: rel.version, Payload: rel.payload, Metadata: meta})
	}

	// Iterate in insertion order of the "from" node so the edge array is
	// itself reproducible across runs with identical graphs.
	for _, fromID := range g.order {
		tos := make([]ReleaseID, 0, len(g.out[fromID]))
		for to := range g.out[fromID] {
			tos = append(tos, to)
		}
		sortReleaseIDs(tos)
		for _, toID := range tos {
			wg.Edges = append(wg.Edges, [2]int{index[fromID], index[toID]})
		}
	}

	return json.Marshal(wg)
}

func sortReleaseIDs(ids []ReleaseID) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}

// Deserialize parses a document produced by Serialize (or an upstream
// builder's cached JSON) back into a Graph.
func Deserialize(data []byte) (*Graph, error) {
	var wg wireGraph
	if err := json.Unmarshal(data, &wg); err != nil {
		return nil, err
	}

	g := New()
	ids := make([]ReleaseID, len(wg.Nodes))
	for i, n := range wg.Nodes {
		id, err := g.AddRelease(n.Version, n.Payload, n.Metadata)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}

	for _, e := range wg.Edges {
		if e[0] < 0 || e[0] >= len(ids) || e[1] < 0 || e[1] >= len(ids) {
			continue
		}
		fromVersion, _ := g.Version(ids[e[0]])
		toVersion, _ := g.Version(ids[e[1]])
		if err := g.AddEdge(fromVersion, toVersion); err != nil {
			return nil, err
		}
	}

	return g, nil
}
