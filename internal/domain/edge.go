package domain

// Edge is a TOP_Kante. IntermediateGeoPoints run from NodeA to NodeB and
// exclude the positions of the two nodes.
type Edge struct {
	ID                    string     `json:"id" msgpack:"id"`
	NodeA                 string     `json:"node_a" msgpack:"a"`
	NodeB                 string     `json:"node_b" msgpack:"b"`
	Length                float64    `json:"length" msgpack:"length"`
	IntermediateGeoPoints []GeoPoint `json:"intermediate_geo_points" msgpack:"geo"`
	Signals               []string   `json:"signals" msgpack:"signals"`
}

// OtherNode returns the endpoint opposite to nodeID.
func (e *Edge) OtherNode(nodeID string) string {
	if e.NodeA == nodeID {
		return e.NodeB
	}
	return e.NodeA
}
