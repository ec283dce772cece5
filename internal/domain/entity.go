package domain

// EntityKind names one of the four entity collections of a Topology
type EntityKind string

const (
	KindNode   EntityKind = "node"
	KindEdge   EntityKind = "edge"
	KindSignal EntityKind = "signal"
	KindRoute  EntityKind = "route"
)

// Entity is implemented by every object a Topology owns
type Entity interface {
	Identity() string
	EntityKind() EntityKind
}

func (n *Node) Identity() string   { return n.ID }
func (e *Edge) Identity() string   { return e.ID }
func (s *Signal) Identity() string { return s.ID }
func (r *Route) Identity() string  { return r.ID }

func (*Node) EntityKind() EntityKind   { return KindNode }
func (*Edge) EntityKind() EntityKind   { return KindEdge }
func (*Signal) EntityKind() EntityKind { return KindSignal }
func (*Route) EntityKind() EntityKind  { return KindRoute }
