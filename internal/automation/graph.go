package automation

import (
	"encoding/json"

	"whatsapp-crm/internal/models"
)

// NodeData is the data property stored on each ReactFlow node
type NodeData struct {
	Label   string     `json:"label"`
	Steps   []FlowStep `json:"steps"`
	IsStart bool       `json:"isStart"`
}

// FlowStep represents a step within a node (e.g. Text, Image)
type FlowStep struct {
	Type    string          `json:"type"`
	Content string          `json:"content"`
	Buttons []QuickReplyBtn `json:"buttons,omitempty"`
	Url     string          `json:"url,omitempty"`
}

type QuickReplyBtn struct {
	Label string `json:"label"`
}

type GraphNode struct {
	ID   string
	Type string
	Data NodeData
}

type GraphEdge struct {
	ID           string
	Source       string
	Target       string
	SourceHandle string
}

// Graph is a flow's node/edge set reconstructed from the relational tables.
type Graph struct {
	Nodes []GraphNode
	Edges []GraphEdge
}

// Start returns the node flagged isStart, or nil.
func (g *Graph) Start() *GraphNode {
	for i := range g.Nodes {
		if g.Nodes[i].Data.IsStart {
			return &g.Nodes[i]
		}
	}
	return nil
}

// Node returns the node with the given ReactFlow id, or nil.
func (g *Graph) Node(id string) *GraphNode {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

// Next follows the default edge out of a node. Edges with a button-specific
// source handle are skipped; an empty handle or a "default" suffix wins.
func (g *Graph) Next(nodeID string) *GraphNode {
	for _, edge := range g.Edges {
		if edge.Source != nodeID {
			continue
		}
		if edge.SourceHandle == "" || hasDefaultHandle(edge.SourceHandle) {
			return g.Node(edge.Target)
		}
	}
	return nil
}

func hasDefaultHandle(handle string) bool {
	return len(handle) >= 7 && handle[len(handle)-7:] == "default"
}

func (e *Engine) loadGraph(flowID string) (*Graph, error) {
	var nodes []models.FlowNode
	var edges []models.FlowEdge

	if err := e.db.Where("flow_id = ?", flowID).Find(&nodes).Error; err != nil {
		return nil, err
	}
	if err := e.db.Where("flow_id = ?", flowID).Find(&edges).Error; err != nil {
		return nil, err
	}

	graph := &Graph{
		Nodes: make([]GraphNode, len(nodes)),
		Edges: make([]GraphEdge, len(edges)),
	}

	for i, n := range nodes {
		var data NodeData
		if n.Data != "" {
			if err := json.Unmarshal([]byte(n.Data), &data); err != nil {
				e.log.WithError(err).WithField("node", n.NodeID).Warn("Bad node data, skipping")
			}
		}
		graph.Nodes[i] = GraphNode{
			ID:   n.NodeID,
			Type: n.Type,
			Data: data,
		}
	}

	for i, edge := range edges {
		graph.Edges[i] = GraphEdge{
			ID:           edge.EdgeID,
			Source:       edge.Source,
			Target:       edge.Target,
			SourceHandle: edge.SourceHandle,
		}
	}

	return graph, nil
}
