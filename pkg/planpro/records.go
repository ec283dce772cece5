package planpro

import "strings"

// Record is implemented by every typed container record.
type Record interface {
	Identity() string
}

// Designation is the Bezeichnung block shared by several records
type Designation struct {
	Outdoor *Value[string] `xml:"Bezeichnung_Aussenanlage"`
	Table   *Value[string] `xml:"Bezeichnung_Tabelle"`
}

// EdgePlacement is a Punkt_Objekt_TOP_Kante: a position along a TOP edge.
type EdgePlacement struct {
	EdgeID       *Value[string]  `xml:"ID_TOP_Kante"`
	Distance     *Value[float64] `xml:"Abstand"`
	Direction    *Value[string]  `xml:"Wirkrichtung"`
	SideDistance *Value[float64] `xml:"Seitlicher_Abstand"`
}

// TopNode is a TOP_Knoten
type TopNode struct {
	ID        Value[string]  `xml:"Identitaet"`
	GeoNodeID *Value[string] `xml:"ID_GEO_Knoten"`
}

// TopEdge is a TOP_Kante
type TopEdge struct {
	ID      Value[string]   `xml:"Identitaet"`
	NodeAID Value[string]   `xml:"ID_TOP_Knoten_A"`
	NodeBID Value[string]   `xml:"ID_TOP_Knoten_B"`
	General *TopEdgeGeneral `xml:"TOP_Kante_Allg"`
}

type TopEdgeGeneral struct {
	ConnectionA *Value[string]  `xml:"TOP_Anschluss_A"`
	ConnectionB *Value[string]  `xml:"TOP_Anschluss_B"`
	Length      *Value[float64] `xml:"TOP_Laenge"`
}

func (e *TopEdge) ConnectionA() string {
	if e.General == nil {
		return ""
	}
	return e.General.ConnectionA.Or("")
}

func (e *TopEdge) ConnectionB() string {
	if e.General == nil {
		return ""
	}
	return e.General.ConnectionB.Or("")
}

func (e *TopEdge) Length() float64 {
	if e.General == nil {
		return 0
	}
	return e.General.Length.Or(0)
}

// GeoPoint is a GEO_Punkt; several points may describe one GEO_Knoten in
// different coordinate systems.
type GeoPoint struct {
	ID        Value[string]    `xml:"Identitaet"`
	GeoNodeID *Value[string]   `xml:"ID_GEO_Knoten"`
	General   *GeoPointGeneral `xml:"GEO_Punkt_Allg"`
}

type GeoPointGeneral struct {
	X      *Value[float64] `xml:"GK_X"`
	Y      *Value[float64] `xml:"GK_Y"`
	Source *Value[string]  `xml:"Plan_Quelle"`
	// 1.9 names the element GEO_Koordinatensystem, 1.10 GEO_KoordinatenSystem_LSys.
	CoordinateSystem     *Value[string] `xml:"GEO_Koordinatensystem"`
	CoordinateSystemLSys *Value[string] `xml:"GEO_KoordinatenSystem_LSys"`
}

// Coordinates returns x, y and whether both are present.
func (p *GeoPoint) Coordinates() (x, y float64, ok bool) {
	if p == nil || p.General == nil {
		return 0, 0, false
	}
	x, okX := p.General.X.Get()
	y, okY := p.General.Y.Get()
	return x, y, okX && okY
}

func (p *GeoPoint) CoordinateSystem() string {
	if p == nil || p.General == nil {
		return ""
	}
	if v, ok := p.General.CoordinateSystem.Get(); ok {
		return v
	}
	return p.General.CoordinateSystemLSys.Or("")
}

func (p *GeoPoint) Source() string {
	if p == nil || p.General == nil {
		return ""
	}
	return p.General.Source.Or("")
}

// GeoEdge is a GEO_Kante. KindID (ID_GEO_Art) points at the TOP_Kante the
// segment belongs to.
type GeoEdge struct {
	ID      Value[string]   `xml:"Identitaet"`
	NodeAID Value[string]   `xml:"ID_GEO_Knoten_A"`
	NodeBID Value[string]   `xml:"ID_GEO_Knoten_B"`
	KindID  *Value[string]  `xml:"ID_GEO_Art"`
	General *GeoEdgeGeneral `xml:"GEO_Kante_Allg"`
}

type GeoEdgeGeneral struct {
	Length  *Value[float64] `xml:"GEO_Laenge"`
	Form    *Value[string]  `xml:"GEO_Form"`
	RadiusA *Value[float64] `xml:"GEO_Radius_A"`
	RadiusB *Value[float64] `xml:"GEO_Radius_B"`
}

// Other returns the endpoint opposite to geoNodeID.
func (e *GeoEdge) Other(geoNodeID string) string {
	if e.NodeAID.Wert == geoNodeID {
		return e.NodeBID.Wert
	}
	return e.NodeAID.Wert
}

// Touches reports whether geoNodeID is one of the two endpoints.
func (e *GeoEdge) Touches(geoNodeID string) bool {
	return e.NodeAID.Wert == geoNodeID || e.NodeBID.Wert == geoNodeID
}

func (e *GeoEdge) Form() string {
	if e.General == nil {
		return ""
	}
	return e.General.Form.Or("")
}

func (e *GeoEdge) RadiusA() float64 {
	if e.General == nil {
		return 0
	}
	return e.General.RadiusA.Or(0)
}

// PointElement is a W_Kr_Gsp_Element (switch, crossing, track lock).
type PointElement struct {
	ID          Value[string] `xml:"Identitaet"`
	Designation *Designation  `xml:"Bezeichnung"`
}

func (e *PointElement) Name() (string, bool) {
	if e.Designation == nil {
		return "", false
	}
	return e.Designation.Outdoor.Get()
}

// PointComponent is a W_Kr_Gsp_Komponente
type PointComponent struct {
	ID         Value[string]   `xml:"Identitaet"`
	ElementID  *Value[string]  `xml:"ID_W_Kr_Gsp_Element"`
	Placements []EdgePlacement `xml:"Punkt_Objekt_TOP_Kante"`
	TonguePair *TonguePair     `xml:"Zungenpaar"`
}

type TonguePair struct {
	DriveAmount *Value[int] `xml:"Elektrischer_Antrieb_Anzahl"`
}

func (c *PointComponent) DriveAmount() (int, bool) {
	if c == nil || c.TonguePair == nil {
		return 0, false
	}
	return c.TonguePair.DriveAmount.Get()
}

// Signal is a Signal record, either real or fictional.
type Signal struct {
	ID          Value[string]    `xml:"Identitaet"`
	Designation *Designation     `xml:"Bezeichnung"`
	Placements  []EdgePlacement  `xml:"Punkt_Objekt_TOP_Kante"`
	Real        *SignalReal      `xml:"Signal_Real"`
	Fictional   *SignalFictional `xml:"Signal_Fiktiv"`
}

type SignalReal struct {
	Function *Value[string]    `xml:"Signal_Funktion"`
	Active   *SignalRealActive `xml:"Signal_Real_Aktiv"`
	Screen   *SignalScreen     `xml:"Signal_Real_Aktiv_Schirm"`
}

type SignalRealActive struct {
	Function *Value[string] `xml:"Signal_Funktion"`
}

type SignalScreen struct {
	Kind   *Value[string] `xml:"Signal_Art"`
	System *Value[string] `xml:"Signalsystem"`
}

type SignalFictional struct {
	Functions []Value[string] `xml:"Fiktives_Signal_Funktion"`
}

// Identifier returns the outdoor designation, falling back to the table
// designation.
func (s *Signal) Identifier() (string, bool) {
	if s.Designation == nil {
		return "", false
	}
	if v, ok := s.Designation.Outdoor.Get(); ok {
		return v, true
	}
	return s.Designation.Table.Get()
}

// Screen returns the active screen of a real signal or nil.
func (s *Signal) Screen() *SignalScreen {
	if s == nil || s.Real == nil {
		return nil
	}
	return s.Real.Screen
}

// RealFunction returns the function of a real signal. 1.9 keeps it on
// Signal_Real_Aktiv, 1.10 on Signal_Real. The other location is tried as a
// fallback.
func (s *Signal) RealFunction(version Version) (string, bool) {
	if s == nil || s.Real == nil {
		return "", false
	}
	var active *Value[string]
	if s.Real.Active != nil {
		active = s.Real.Active.Function
	}
	first, second := s.Real.Function, active
	if version == Version19 {
		first, second = active, s.Real.Function
	}
	if v, ok := first.Get(); ok {
		return v, true
	}
	return second.Get()
}

func (sc *SignalScreen) KindValue() (string, bool) {
	if sc == nil {
		return "", false
	}
	return sc.Kind.Get()
}

func (sc *SignalScreen) SystemValue() (string, bool) {
	if sc == nil {
		return "", false
	}
	return sc.System.Get()
}

// SignalFrame is a Signal_Rahmen
type SignalFrame struct {
	ID       Value[string]  `xml:"Identitaet"`
	SignalID *Value[string] `xml:"ID_Signal"`
}

// SignalTerm is a Signal_Signalbegriff
type SignalTerm struct {
	ID      Value[string]  `xml:"Identitaet"`
	FrameID *Value[string] `xml:"ID_Signal_Rahmen"`
	Term    *SignalTermID  `xml:"Signalbegriff_ID"`
}

// SignalTermID carries the concrete term as an xsi:type, optionally with
// the short name and description spelled out.
type SignalTermID struct {
	Type        string `xml:"http://www.w3.org/2001/XMLSchema-instance type,attr"`
	ShortName   string `xml:"Kurzbezeichnung_DS,attr"`
	Description string `xml:"Beschreibung,attr"`
}

// Text returns the most specific text available for the term.
func (t *SignalTermID) Text() string {
	if t == nil {
		return ""
	}
	if t.ShortName != "" {
		return t.ShortName
	}
	if t.Description != "" {
		return t.Description
	}
	if i := strings.LastIndex(t.Type, ":"); i >= 0 {
		return t.Type[i+1:]
	}
	return t.Type
}

// Route is a Fstr_Fahrweg
type Route struct {
	ID       Value[string]   `xml:"Identitaet"`
	StartID  *Value[string]  `xml:"ID_Start"`
	TargetID *Value[string]  `xml:"ID_Ziel"`
	MaxSpeed *Value[float64] `xml:"Fstr_V_Hg"`
	Sections []RouteSection  `xml:"Bereich_Objekt_Teilbereich"`
}

type RouteSection struct {
	EdgeID *Value[string]  `xml:"ID_TOP_Kante"`
	LimitA *Value[float64] `xml:"Begrenzung_A"`
	LimitB *Value[float64] `xml:"Begrenzung_B"`
}

func (r *TopNode) Identity() string        { return r.ID.Wert }
func (r *TopEdge) Identity() string        { return r.ID.Wert }
func (r *GeoPoint) Identity() string       { return r.ID.Wert }
func (r *GeoEdge) Identity() string        { return r.ID.Wert }
func (r *PointElement) Identity() string   { return r.ID.Wert }
func (r *PointComponent) Identity() string { return r.ID.Wert }
func (r *Signal) Identity() string         { return r.ID.Wert }
func (r *SignalFrame) Identity() string    { return r.ID.Wert }
func (r *SignalTerm) Identity() string     { return r.ID.Wert }
func (r *Route) Identity() string          { return r.ID.Wert }
