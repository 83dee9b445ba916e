package handler

import (
	"bytes"
	"encoding/csv"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/oapi-codegen/runtime"

	"github.com/pkordes/mapty/internal/domain"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"id", "type", "date", "lat", "lng", "distance_km", "duration_min",
	"description", "cadence_spm", "pace_min_km", "elevation_gain_m", "speed_km_h",
}

// GetExport handles GET /api/session/export.
// It returns the client's stored workouts, flat. Use ?format=csv for CSV;
// the default is JSON.
func (s *Server) GetExport(w http.ResponseWriter, r *http.Request) {
	clientID, ok := requireClient(w, r)
	if !ok {
		return
	}

	format := "json"
	if err := runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), &format); err != nil {
		requestError(w, "format: "+err.Error())
		return
	}
	if format != "json" && format != "csv" {
		requestError(w, "format must be json or csv")
		return
	}

	ws, err := s.export.Export(r.Context(), clientID)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}

	if format == "csv" {
		writeCSV(w, ws)
		return
	}
	writeJSON(w, http.StatusOK, listWorkoutsResponse{Data: toRecords(ws)})
}

// writeCSV encodes workouts as CSV, one row per workout. Columns that do not
// apply to a workout's type are left empty.
func writeCSV(w http.ResponseWriter, ws []domain.Workout) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	//nolint:errcheck // bytes.Buffer.Write never returns an error.
	cw.Write(csvHeaders)
	for _, wo := range ws {
		//nolint:errcheck
		cw.Write(workoutToCSVRecord(wo))
	}
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="workouts.csv"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// workoutToCSVRecord flattens a workout into the csvHeaders column order.
func workoutToCSVRecord(w domain.Workout) []string {
	row := []string{
		w.ID,
		string(w.Kind()),
		w.Date.UTC().Format(time.RFC3339),
		formatFloat(w.Coords.Lat),
		formatFloat(w.Coords.Lng),
		formatFloat(w.Distance),
		formatFloat(w.Duration),
		w.Description,
		"", "", "", "",
	}
	switch m := w.Metrics.(type) {
	case domain.Running:
		row[8], row[9] = formatFloat(m.Cadence), formatFloat(m.Pace)
	case domain.Cycling:
		row[10], row[11] = formatFloat(m.ElevationGain), formatFloat(m.Speed)
	}
	return row
}

// formatFloat leaves NaN and infinite values as an empty cell.
func formatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
