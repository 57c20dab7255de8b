package flow

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrNoMetaGraph is returned when no meta-graph document was assigned at
// build time.
var ErrNoMetaGraph = errors.New("no meta graph assigned")

// GraphID is a versioned index, the identifier form used throughout the
// meta-graph document.
type GraphID struct {
	Idx     int `json:"idx"`
	Version int `json:"version"`
}

// MetaNodeValue is either an operator node (with its label) or a handoff
// node. It serializes as {"Operator": <label>} or {"Handoff": {}}.
type MetaNodeValue struct {
	Operator string
	Handoff  bool
}

// MarshalJSON implements the tagged-variant encoding.
func (v MetaNodeValue) MarshalJSON() ([]byte, error) {
	if v.Handoff {
		return []byte(`{"Handoff":{}}`), nil
	}
	return json.Marshal(map[string]string{"Operator": v.Operator})
}

// UnmarshalJSON decodes the tagged-variant encoding.
func (v *MetaNodeValue) UnmarshalJSON(data []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if _, ok := m["Handoff"]; ok {
		v.Handoff = true
		v.Operator = ""
		return nil
	}
	if raw, ok := m["Operator"]; ok {
		v.Handoff = false
		return json.Unmarshal(raw, &v.Operator)
	}
	return fmt.Errorf("meta node value must be Operator or Handoff")
}

// MetaNode is one node of the meta-graph.
type MetaNode struct {
	Value   MetaNodeValue `json:"value"`
	Version int           `json:"version"`
}

// MetaEdge is one directed edge, serialized as a [src, dst] pair of ids.
type MetaEdge struct {
	Src GraphID
	Dst GraphID
}

// MarshalJSON encodes the edge as a two-element array.
func (e MetaEdge) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]GraphID{e.Src, e.Dst})
}

// UnmarshalJSON decodes the two-element array form.
func (e *MetaEdge) UnmarshalJSON(data []byte) error {
	var pair [2]GraphID
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	e.Src, e.Dst = pair[0], pair[1]
	return nil
}

// PortKind distinguishes the three port label variants.
type PortKind int

const (
	// PortElided is an unnamed port.
	PortElided PortKind = iota
	// PortInt is an integer-indexed port.
	PortInt
	// PortPath is a named port.
	PortPath
)

// PortLabel is an edge endpoint label: Elided, {Int: n} or {Path: name}.
type PortLabel struct {
	Kind PortKind
	Int  int
	Path string
}

// Elided returns the unnamed port label.
func Elided() PortLabel { return PortLabel{Kind: PortElided} }

// IntPort returns an integer-indexed port label.
func IntPort(n int) PortLabel { return PortLabel{Kind: PortInt, Int: n} }

// PathPort returns a named port label.
func PathPort(name string) PortLabel { return PortLabel{Kind: PortPath, Path: name} }

// MarshalJSON encodes the tagged variant.
func (p PortLabel) MarshalJSON() ([]byte, error) {
	switch p.Kind {
	case PortInt:
		return json.Marshal(map[string]int{"Int": p.Int})
	case PortPath:
		return json.Marshal(map[string]string{"Path": p.Path})
	default:
		return json.Marshal("Elided")
	}
}

// UnmarshalJSON decodes the tagged variant.
func (p *PortLabel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "Elided" {
			return fmt.Errorf("unknown port label %q", s)
		}
		*p = PortLabel{Kind: PortElided}
		return nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if raw, ok := m["Int"]; ok {
		p.Kind = PortInt
		return json.Unmarshal(raw, &p.Int)
	}
	if raw, ok := m["Path"]; ok {
		p.Kind = PortPath
		return json.Unmarshal(raw, &p.Path)
	}
	return fmt.Errorf("unknown port label")
}

// MetaEdgePorts pairs the source and destination port labels of one edge.
type MetaEdgePorts [2]PortLabel

// MetaGraph is the side table recording the original operator graph. It is
// informational: the runtime stores and serves it but never consults it
// during execution. Identifiers match those used by the runtime.
type MetaGraph struct {
	Nodes                   []MetaNode           `json:"nodes"`
	Graph                   []MetaEdge           `json:"graph"`
	Ports                   []MetaEdgePorts      `json:"ports"`
	NodeLoops               map[string]GraphID   `json:"node_loops"`
	LoopNodes               map[string][]GraphID `json:"loop_nodes"`
	LoopParent              map[string]GraphID   `json:"loop_parent"`
	RootLoops               []GraphID            `json:"root_loops"`
	LoopChildren            map[string][]GraphID `json:"loop_children"`
	NodeSubgraph            map[string]GraphID   `json:"node_subgraph"`
	SubgraphNodes           map[string][]GraphID `json:"subgraph_nodes"`
	SubgraphStratum         map[string]int       `json:"subgraph_stratum"`
	NodeSingletonReferences map[string][]GraphID `json:"node_singleton_references"`
	NodeVarnames            map[string]string    `json:"node_varnames"`
	SubgraphLaziness        map[string]bool      `json:"subgraph_laziness"`
}

// NewMetaGraph creates an empty meta-graph.
func NewMetaGraph() *MetaGraph {
	return &MetaGraph{
		NodeLoops:               make(map[string]GraphID),
		LoopNodes:               make(map[string][]GraphID),
		LoopParent:              make(map[string]GraphID),
		LoopChildren:            make(map[string][]GraphID),
		NodeSubgraph:            make(map[string]GraphID),
		SubgraphNodes:           make(map[string][]GraphID),
		SubgraphStratum:         make(map[string]int),
		NodeSingletonReferences: make(map[string][]GraphID),
		NodeVarnames:            make(map[string]string),
		SubgraphLaziness:        make(map[string]bool),
	}
}

func key(id GraphID) string { return strconv.Itoa(id.Idx) }

// AddOperator appends an operator node with the given label.
func (m *MetaGraph) AddOperator(label string) GraphID {
	id := GraphID{Idx: len(m.Nodes)}
	m.Nodes = append(m.Nodes, MetaNode{Value: MetaNodeValue{Operator: label}})
	return id
}

// AddHandoffNode appends a handoff node.
func (m *MetaGraph) AddHandoffNode() GraphID {
	id := GraphID{Idx: len(m.Nodes)}
	m.Nodes = append(m.Nodes, MetaNode{Value: MetaNodeValue{Handoff: true}})
	return id
}

// AddEdge connects two nodes with the given port labels.
func (m *MetaGraph) AddEdge(src, dst GraphID, srcPort, dstPort PortLabel) {
	m.Graph = append(m.Graph, MetaEdge{Src: src, Dst: dst})
	m.Ports = append(m.Ports, MetaEdgePorts{srcPort, dstPort})
}

// AddLoopMeta records a loop and its optional parent.
func (m *MetaGraph) AddLoopMeta(loop GraphID, parent *GraphID) {
	k := key(loop)
	if _, ok := m.LoopNodes[k]; !ok {
		m.LoopNodes[k] = nil
	}
	if parent == nil {
		m.RootLoops = append(m.RootLoops, loop)
		return
	}
	m.LoopParent[k] = *parent
	pk := key(*parent)
	m.LoopChildren[pk] = append(m.LoopChildren[pk], loop)
}

// AssignNodeLoop records loop membership of a node.
func (m *MetaGraph) AssignNodeLoop(node, loop GraphID) {
	m.NodeLoops[key(node)] = loop
	lk := key(loop)
	m.LoopNodes[lk] = append(m.LoopNodes[lk], node)
}

// AssignNodeSubgraph records subgraph membership of a node.
func (m *MetaGraph) AssignNodeSubgraph(node, sg GraphID) {
	m.NodeSubgraph[key(node)] = sg
	sk := key(sg)
	m.SubgraphNodes[sk] = append(m.SubgraphNodes[sk], node)
}

// SetSubgraphStratum records a subgraph's stratum.
func (m *MetaGraph) SetSubgraphStratum(sg GraphID, stratum int) {
	m.SubgraphStratum[key(sg)] = stratum
}

// SetSubgraphLaziness records a subgraph's laziness flag.
func (m *MetaGraph) SetSubgraphLaziness(sg GraphID, lazy bool) {
	m.SubgraphLaziness[key(sg)] = lazy
}

// SetVarname records the surface-language variable name of a node.
func (m *MetaGraph) SetVarname(node GraphID, name string) {
	m.NodeVarnames[key(node)] = name
}

// AddSingletonReference records that a node references another node's
// singleton state.
func (m *MetaGraph) AddSingletonReference(node, target GraphID) {
	k := key(node)
	m.NodeSingletonReferences[k] = append(m.NodeSingletonReferences[k], target)
}

// Serialize encodes the meta-graph as the JSON document consumed by
// external visualizers.
func (m *MetaGraph) Serialize() (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to serialize meta graph: %w", err)
	}
	return string(data), nil
}

// ParseMetaGraph decodes a serialized meta-graph document.
func ParseMetaGraph(serialized string) (*MetaGraph, error) {
	var m MetaGraph
	if err := json.Unmarshal([]byte(serialized), &m); err != nil {
		return nil, fmt.Errorf("failed to parse meta graph: %w", err)
	}
	return &m, nil
}

// MetaGraph parses and returns the meta-graph document assigned at build
// time. Parse failures surface here, never during scheduling.
func (r *Runtime) MetaGraph() (*MetaGraph, error) {
	if r.metaJSON == "" {
		return nil, ErrNoMetaGraph
	}
	return ParseMetaGraph(r.metaJSON)
}

// BuildMetaGraph derives a meta-graph from the runtime's own topology: one
// operator node per subgraph, one handoff node per handoff, edges through
// handoffs with elided ports, and the loop/stratum side tables. Useful
// when no front-end document was assigned.
func (r *Runtime) BuildMetaGraph() *MetaGraph {
	m := NewMetaGraph()

	sgNodes := make([]GraphID, len(r.subgraphs))
	for i, sg := range r.subgraphs {
		node := m.AddOperator(sg.name)
		sgNodes[i] = node
		sgID := GraphID{Idx: int(sg.id)}
		m.AssignNodeSubgraph(node, sgID)
		m.SetSubgraphStratum(sgID, sg.stratum)
		m.SetSubgraphLaziness(sgID, sg.lazy)
		if sg.loop != NoLoop {
			m.AssignNodeLoop(node, GraphID{Idx: int(sg.loop)})
		}
	}
	for i, l := range r.loops.loops {
		id := GraphID{Idx: i}
		if l.parent == NoLoop {
			m.AddLoopMeta(id, nil)
		} else {
			parent := GraphID{Idx: int(l.parent)}
			m.AddLoopMeta(id, &parent)
		}
	}
	for _, rec := range r.handoffs {
		node := m.AddHandoffNode()
		m.SetVarname(node, rec.name)
		if rec.producer >= 0 {
			m.AddEdge(sgNodes[rec.producer], node, Elided(), Elided())
		}
		if rec.consumer >= 0 {
			m.AddEdge(node, sgNodes[rec.consumer], Elided(), Elided())
		}
	}
	return m
}
