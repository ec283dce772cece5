package domain

import "fmt"

// Route is a Fstr_Fahrweg bounded by two signals
type Route struct {
	ID            string   `json:"id" msgpack:"id"`
	Name          string   `json:"name" msgpack:"name"`
	StartSignalID string   `json:"start_signal_id" msgpack:"start"`
	EndSignalID   string   `json:"end_signal_id" msgpack:"end"`
	MaximumSpeed  *float64 `json:"maximum_speed,omitempty" msgpack:"vmax,omitempty"`
	EdgeIDs       []string `json:"edge_ids" msgpack:"edges"`
}

// RouteName derives the display name from the two bounding signals.
func RouteName(start, end *Signal) string {
	return fmt.Sprintf("%s-%s", start.Name, end.Name)
}
