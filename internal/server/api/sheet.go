package api

import (
	"net/http"

	"github.com/ayusman/handsheet/internal/geometry"
)

// SheetView is the read side of the grid.
type SheetView interface {
	Data() [][]string
	Selection() (geometry.Rect, bool)
	ScrollOffset() (row, col int)
	Scale() float64
	CountRows() int
	CountCols() int
}

// SheetHandler serves the grid contents and view state.
type SheetHandler struct {
	sheet SheetView
}

// NewSheetHandler creates a SheetHandler.
func NewSheetHandler(s SheetView) *SheetHandler {
	return &SheetHandler{sheet: s}
}

type sheetResponse struct {
	Rows      int        `json:"rows"`
	Cols      int        `json:"cols"`
	Data      [][]string `json:"data"`
	Selection string     `json:"selection,omitempty"`
	ScrollRow int        `json:"scrollRow"`
	ScrollCol int        `json:"scrollCol"`
	Zoom      float64    `json:"zoom"`
}

// ServeHTTP handles GET /api/sheet.
func (h *SheetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := sheetResponse{
		Rows: h.sheet.CountRows(),
		Cols: h.sheet.CountCols(),
		Data: h.sheet.Data(),
		Zoom: h.sheet.Scale(),
	}
	if sel, ok := h.sheet.Selection(); ok {
		resp.Selection = sel.A1()
	}
	resp.ScrollRow, resp.ScrollCol = h.sheet.ScrollOffset()
	writeJSON(w, http.StatusOK, resp)
}
