package planpro

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

var (
	ErrNoContainer        = errors.New("no PlanPro data found")
	ErrUnsupportedVersion = errors.New("unsupported PlanPro version")
)

// Version is one of the schema versions whose layouts are known.
type Version string

const (
	VersionUnknown Version = ""
	Version19      Version = "1.9"
	Version110     Version = "1.10"
)

// ParseVersion accepts "1.9", "1.10" and "auto" (returns VersionUnknown).
func ParseVersion(s string) (Version, error) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "", "auto":
		return VersionUnknown, nil
	case "1.9", "19":
		return Version19, nil
	case "1.10", "110":
		return Version110, nil
	default:
		return VersionUnknown, fmt.Errorf("%w: %q", ErrUnsupportedVersion, s)
	}
}

// Document is a decoded PlanPro_Schnittstelle.
type Document struct {
	XMLName  xml.Name          `xml:"PlanPro_Schnittstelle"`
	General  *InterfaceGeneral `xml:"PlanPro_Schnittstelle_Allg"`
	Planning *Planning         `xml:"LST_Planung"`
	State    *State            `xml:"LST_Zustand"`

	Version Version `xml:"-"`
}

type InterfaceGeneral struct {
	CreatedAt   *Value[string] `xml:"Erzeugung_Zeitstempel"`
	ToolName    *Value[string] `xml:"Werkzeug_Name"`
	ToolVersion *Value[string] `xml:"Werkzeug_Version"`
	XSDVersion  *Value[string] `xml:"PlanPro_XSD_Version"`
}

type Planning struct {
	Data *PlanningData `xml:"Fachdaten"`
}

type PlanningData struct {
	Outputs []PlanningOutput `xml:"Ausgabe_Fachdaten"`
}

type PlanningOutput struct {
	Target *State `xml:"LST_Zustand_Ziel"`
}

type State struct {
	Container *Container `xml:"Container"`
}

// Decode parses a PlanPro document. With VersionUnknown the version is
// detected from the root namespace or the XSD version field.
func Decode(r io.Reader, version Version) (*Document, error) {
	var doc Document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode planpro xml: %w", err)
	}

	if version == VersionUnknown {
		detected, err := doc.detectVersion()
		if err != nil {
			return nil, err
		}
		version = detected
	}
	doc.Version = version
	return &doc, nil
}

// DecodeBytes is Decode over an in-memory document.
func DecodeBytes(data []byte, version Version) (*Document, error) {
	return Decode(bytes.NewReader(data), version)
}

func (d *Document) detectVersion() (Version, error) {
	candidates := []string{d.XMLName.Space}
	if d.General != nil {
		candidates = append(candidates, d.General.XSDVersion.Or(""))
	}
	for _, c := range candidates {
		switch {
		case strings.Contains(c, "1.10"):
			return Version110, nil
		case strings.Contains(c, "1.9"):
			return Version19, nil
		}
	}
	return VersionUnknown, fmt.Errorf("%w: cannot detect version from namespace %q", ErrUnsupportedVersion, d.XMLName.Space)
}

// Containers returns the target states of all planning outputs followed by
// the LST_Zustand container.
func (d *Document) Containers() ([]*Container, error) {
	var containers []*Container

	if d.Planning != nil && d.Planning.Data != nil {
		for _, out := range d.Planning.Data.Outputs {
			if out.Target != nil && out.Target.Container != nil {
				containers = append(containers, out.Target.Container)
			}
		}
	}
	if d.State != nil && d.State.Container != nil {
		containers = append(containers, d.State.Container)
	}

	if len(containers) == 0 {
		return nil, ErrNoContainer
	}
	return containers, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// CreatedAt parses Erzeugung_Zeitstempel.
func (d *Document) CreatedAt() (time.Time, bool) {
	if d.General == nil {
		return time.Time{}, false
	}
	raw, ok := d.General.CreatedAt.Get()
	if !ok {
		return time.Time{}, false
	}
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CreatedWith returns "<tool> (Version: <version>)".
func (d *Document) CreatedWith() string {
	if d.General == nil {
		return ""
	}
	tool := d.General.ToolName.Or("")
	version := d.General.ToolVersion.Or("")
	if tool == "" && version == "" {
		return ""
	}
	return fmt.Sprintf("%s (Version: %s)", tool, version)
}
