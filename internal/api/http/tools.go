package http

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-qti/internal/qti/numstring"
	"github.com/mind-engage/mindengage-qti/internal/qti/value"
	syncx "github.com/mind-engage/mindengage-qti/internal/sync"
)

// GET /tools/decompose?value=-1.50e3
func DecomposeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := numstring.Decompose(r.URL.Query().Get("value"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rec, err := value.Marshal(d.Record())
		if err != nil {
			http.Error(w, "encode record", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, json.RawMessage(rec))
	}
}

// GET /events?key=&limit=
func ListEventsHandler(events *syncx.EventRepo, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := events.List(r.Context(), r.URL.Query().Get("key"), parseIntDefault(r.URL.Query().Get("limit"), 100))
		if err != nil {
			writeError(w, log, err)
			return
		}
		if list == nil {
			list = []syncx.Event{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}
