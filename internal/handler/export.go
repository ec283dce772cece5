package handler

import (
	"net/http"

	"github.com/paulmach/orb/geojson"
	"github.com/vmihailenco/msgpack/v5"

	"planpro/internal/domain"
)

// ExportGeoJSON writes the topology as a feature collection: positioned
// nodes as points and edges as line strings from node A to node B.
func (h *HTTPHandler) ExportGeoJSON(w http.ResponseWriter, r *http.Request) {
	t := h.store.Topology()
	if t == nil {
		respondError(w, http.StatusServiceUnavailable, errNotLoaded.Error())
		return
	}

	data, err := TopologyGeoJSON(t).MarshalJSON()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "encode geojson: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("ETag", `"`+h.store.Fingerprint()+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *HTTPHandler) ExportMsgpack(w http.ResponseWriter, r *http.Request) {
	t := h.store.Topology()
	if t == nil {
		respondError(w, http.StatusServiceUnavailable, errNotLoaded.Error())
		return
	}

	data, err := msgpack.Marshal(t.Snapshot())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "encode msgpack: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/msgpack")
	w.Header().Set("ETag", `"`+h.store.Fingerprint()+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func TopologyGeoJSON(t *domain.Topology) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, n := range t.Nodes() {
		if n.Geo == nil {
			continue
		}
		f := geojson.NewFeature(n.Geo.Point())
		f.ID = n.ID
		f.Properties["type"] = string(domain.KindNode)
		f.Properties["name"] = n.Name
		f.Properties["point"] = n.IsPoint()
		if n.DriveAmount != nil {
			f.Properties["drive_amount"] = *n.DriveAmount
		}
		fc.Append(f)
	}

	for _, e := range t.Edges() {
		ls, ok := t.LineString(e.ID)
		if !ok || len(ls) < 2 {
			continue
		}
		f := geojson.NewFeature(ls)
		f.ID = e.ID
		f.Properties["type"] = string(domain.KindEdge)
		f.Properties["node_a"] = e.NodeA
		f.Properties["node_b"] = e.NodeB
		f.Properties["length"] = e.Length
		f.Properties["signals"] = e.Signals
		fc.Append(f)
	}

	return fc
}
