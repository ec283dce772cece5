package domain

// Side is the Anschluss of an edge at a node
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
	SideHead  Side = "head"
)

// SideFromAnschluss maps the PlanPro tag; anything but Links/Rechts is head.
func SideFromAnschluss(v string) Side {
	switch v {
	case "Links":
		return SideLeft
	case "Rechts":
		return SideRight
	default:
		return SideHead
	}
}

// Connection links a node to a neighbour over an edge
type Connection struct {
	Side   Side   `json:"side" msgpack:"side"`
	NodeID string `json:"node_id" msgpack:"node"`
	EdgeID string `json:"edge_id" msgpack:"edge"`
}

// Node is a TOP_Knoten
type Node struct {
	ID          string    `json:"id" msgpack:"id"`
	Geo         *GeoPoint `json:"geo,omitempty" msgpack:"geo,omitempty"`
	Name        string    `json:"name,omitempty" msgpack:"name,omitempty"`
	DriveAmount *int      `json:"drive_amount,omitempty" msgpack:"drive_amount,omitempty"`

	Left  *Connection `json:"left,omitempty" msgpack:"left,omitempty"`
	Right *Connection `json:"right,omitempty" msgpack:"right,omitempty"`
	Head  *Connection `json:"head,omitempty" msgpack:"head,omitempty"`
}

// SetConnection stores c on the given side, replacing any earlier one.
func (n *Node) SetConnection(c Connection) {
	conn := c
	switch c.Side {
	case SideLeft:
		n.Left = &conn
	case SideRight:
		n.Right = &conn
	default:
		conn.Side = SideHead
		n.Head = &conn
	}
}

// Connections returns the set sides in left, right, head order.
func (n *Node) Connections() []Connection {
	out := make([]Connection, 0, 3)
	for _, c := range []*Connection{n.Left, n.Right, n.Head} {
		if c != nil {
			out = append(out, *c)
		}
	}
	return out
}

// IsPoint reports whether the node has the three connections of a switch.
func (n *Node) IsPoint() bool {
	return n.Left != nil && n.Right != nil && n.Head != nil
}
