package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type timetableBoard interface {
	Board(ctx context.Context, query dto.BoardQuery) (*dto.BoardResponse, error)
	Detect(ctx context.Context, termID string) (*dto.DetectionResponse, error)
	CreateSlot(ctx context.Context, req dto.CreateSlotRequest) (*dto.MutationResponse, error)
	MoveSlot(ctx context.Context, slotID string, req dto.MoveSlotRequest) (*dto.MutationResponse, error)
	CancelSlot(ctx context.Context, slotID string) (*dto.MutationResponse, error)
	Settings() models.GenerationSettings
}

type boardExporter interface {
	Export(ctx context.Context, query dto.ExportQuery) (*service.ExportFile, error)
}

// TimetableHandler exposes the timetable board endpoints.
type TimetableHandler struct {
	board    timetableBoard
	exporter boardExporter
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(board *service.BoardService, exporter *service.ExportService) *TimetableHandler {
	return &TimetableHandler{board: board, exporter: exporter}
}

// Board godoc
// @Summary Render the timetable board for a term
// @Description Returns the filtered slot list, the day-by-period rendering grid and the conflicts visible in the current view.
// @Tags Timetable
// @Produce json
// @Param termId query string true "Term ID"
// @Param status query []string false "Slot status filter" collectionFormat(multi)
// @Param type query []string false "Slot type filter" collectionFormat(multi)
// @Param day query []int false "Day-of-week filter (1=Monday)" collectionFormat(multi)
// @Param room query []string false "Room filter" collectionFormat(multi)
// @Param periodFrom query int false "Lowest period to include"
// @Param periodTo query int false "Highest period to include"
// @Param search query string false "Free-text search over teacher, class, subject, room and notes"
// @Success 200 {object} response.Envelope
// @Router /timetable/board [get]
func (h *TimetableHandler) Board(c *gin.Context) {
	var query dto.BoardQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid board query"))
		return
	}
	board, err := h.board.Board(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, board, nil)
}

// Conflicts godoc
// @Summary Run conflict detection for a term
// @Description Returns the full detection result for the term, served from cache when a recent pass is available.
// @Tags Timetable
// @Produce json
// @Param termId query string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/conflicts [get]
func (h *TimetableHandler) Conflicts(c *gin.Context) {
	termID := c.Query("termId")
	if termID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "termId is required"))
		return
	}
	detection, err := h.board.Detect(c.Request.Context(), termID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detection, nil)
}

// CreateSlot godoc
// @Summary Place a new slot on the board
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.CreateSlotRequest true "Create slot payload"
// @Success 201 {object} response.Envelope
// @Router /timetable/slots [post]
func (h *TimetableHandler) CreateSlot(c *gin.Context) {
	var req dto.CreateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid slot payload"))
		return
	}
	result, err := h.board.CreateSlot(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// MoveSlot godoc
// @Summary Move a slot to another cell
// @Description Relocates a slot. When the target cell is occupied the move becomes a swap, which must be confirmed with confirmSwap; an unconfirmed swap returns 409.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param id path string true "Slot ID"
// @Param payload body dto.MoveSlotRequest true "Move slot payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetable/slots/{id}/move [post]
func (h *TimetableHandler) MoveSlot(c *gin.Context) {
	var req dto.MoveSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid move payload"))
		return
	}
	result, err := h.board.MoveSlot(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// CancelSlot godoc
// @Summary Cancel a slot
// @Description Soft-deletes the slot: it stays on record with status cancelled and leaves conflict analysis.
// @Tags Timetable
// @Produce json
// @Param id path string true "Slot ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/slots/{id}/cancel [post]
func (h *TimetableHandler) CancelSlot(c *gin.Context) {
	result, err := h.board.CancelSlot(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Settings godoc
// @Summary Show the schedule-template settings
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetable/settings [get]
func (h *TimetableHandler) Settings(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.board.Settings(), nil)
}

// Export godoc
// @Summary Export the timetable board
// @Description Streams the board as CSV or PDF.
// @Tags Timetable
// @Produce text/csv
// @Produce application/pdf
// @Param termId query string true "Term ID"
// @Param format query string false "Export format" Enums(csv, pdf) default(csv)
// @Success 200 {file} binary
// @Router /timetable/export [get]
func (h *TimetableHandler) Export(c *gin.Context) {
	var query dto.ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export query"))
		return
	}
	file, err := h.exporter.Export(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
