package census

import (
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/ginjaninja78/census-bulk-importer/internal/types"
)

// maxBody bounds one bulk-import request.
const maxBody = 32 << 20

// Appender is what the handler writes to.
type Appender interface {
	Append(records []types.Row) (*AppendResult, error)
}

type bulkImportRequest struct {
	Datos []types.Row `json:"datos"`
}

// Handler serves POST /api/bulk-import.
type Handler struct {
	Book   Appender
	Logger *log.Logger
}

// NewHandler returns a handler appending to book.
func NewHandler(book Appender, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{Book: book, Logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	logger := h.Logger.With("session", r.Header.Get("X-Import-Session"))

	var req bulkImportRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&req); err != nil {
		logger.Error("Could not decode payload", "err", err)
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	logger.Info("Bulk import received", "records", len(req.Datos))

	result, err := h.Book.Append(req.Datos)
	if err != nil {
		logger.Error("Census update failed", "err", err)
		http.Error(w, "census workbook was not saved", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		logger.Error("Could not write response", "err", err)
	}
}

// NewMux returns the receiver's routes.
func NewMux(h http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/api/bulk-import", h)
	return mux
}
