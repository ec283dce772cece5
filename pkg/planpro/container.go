package planpro

// Container holds the flat record lists of one planning state.
type Container struct {
	TopNodes        []TopNode        `xml:"TOP_Knoten"`
	TopEdges        []TopEdge        `xml:"TOP_Kante"`
	GeoPoints       []GeoPoint       `xml:"GEO_Punkt"`
	GeoEdges        []GeoEdge        `xml:"GEO_Kante"`
	PointElements   []PointElement   `xml:"W_Kr_Gsp_Element"`
	PointComponents []PointComponent `xml:"W_Kr_Gsp_Komponente"`
	Signals         []Signal         `xml:"Signal"`
	SignalFrames    []SignalFrame    `xml:"Signal_Rahmen"`
	SignalTerms     []SignalTerm     `xml:"Signal_Signalbegriff"`
	Routes          []Route          `xml:"Fstr_Fahrweg"`
}

// Find searches every record list for id and returns the first match.
func (c *Container) Find(id string) (Record, bool) {
	for _, records := range c.collections() {
		for _, r := range records {
			if r.Identity() == id {
				return r, true
			}
		}
	}
	return nil, false
}

// Len returns the total number of records.
func (c *Container) Len() int {
	n := 0
	for _, records := range c.collections() {
		n += len(records)
	}
	return n
}

func (c *Container) collections() [][]Record {
	return [][]Record{
		records(c.TopNodes),
		records(c.TopEdges),
		records(c.GeoPoints),
		records(c.GeoEdges),
		records(c.PointElements),
		records(c.PointComponents),
		records(c.Signals),
		records(c.SignalFrames),
		records(c.SignalTerms),
		records(c.Routes),
	}
}

// records adapts a slice of record values to the Record interface without
// copying the elements.
func records[T any, P interface {
	*T
	Record
}](items []T) []Record {
	out := make([]Record, len(items))
	for i := range items {
		out[i] = P(&items[i])
	}
	return out
}
