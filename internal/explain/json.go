package explain

import (
	"encoding/json"
	"math"
)

// encoding/json rejects NaN, but an all-NaN grid point legitimately yields
// a NaN mean. The custom marshalers below emit null for NaN so results and
// persisted reports always serialize.

func nullable(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func nullableMatrix(m [][]float64) [][]*float64 {
	out := make([][]*float64, len(m))
	for i, row := range m {
		out[i] = make([]*float64, len(row))
		for j, v := range row {
			out[i][j] = nullable(v)
		}
	}
	return out
}

func (p PDPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Value float64  `json:"value"`
		Level string   `json:"level,omitempty"`
		Mean  *float64 `json:"mean"`
		Rows  int      `json:"rows"`
	}{p.Value, p.Level, nullable(p.Mean), p.Rows})
}

func (r *PDPairResult) MarshalJSON() ([]byte, error) {
	type alias PDPairResult
	return json.Marshal(struct {
		*alias
		Means [][]*float64 `json:"means"`
	}{(*alias)(r), nullableMatrix(r.Means)})
}

func (r *ICEResult) MarshalJSON() ([]byte, error) {
	type alias ICEResult
	return json.Marshal(struct {
		*alias
		Curves [][]*float64 `json:"curves"`
	}{(*alias)(r), nullableMatrix(r.Curves)})
}
