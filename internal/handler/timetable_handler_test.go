package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type timetableBoardMock struct {
	boardQuery    dto.BoardQuery
	moveID        string
	moveReq       dto.MoveSlotRequest
	cancelledID   string
	detectedTerm  string
	moveErr       error
	detectionResp *dto.DetectionResponse
}

func (m *timetableBoardMock) Board(_ context.Context, query dto.BoardQuery) (*dto.BoardResponse, error) {
	m.boardQuery = query
	return &dto.BoardResponse{TermID: query.TermID}, nil
}

func (m *timetableBoardMock) Detect(_ context.Context, termID string) (*dto.DetectionResponse, error) {
	m.detectedTerm = termID
	if m.detectionResp != nil {
		return m.detectionResp, nil
	}
	return &dto.DetectionResponse{TermID: termID}, nil
}

func (m *timetableBoardMock) CreateSlot(_ context.Context, req dto.CreateSlotRequest) (*dto.MutationResponse, error) {
	return &dto.MutationResponse{Slot: models.ScheduleSlot{ID: "new-slot", TermID: req.TermID}}, nil
}

func (m *timetableBoardMock) MoveSlot(_ context.Context, slotID string, req dto.MoveSlotRequest) (*dto.MutationResponse, error) {
	m.moveID = slotID
	m.moveReq = req
	if m.moveErr != nil {
		return nil, m.moveErr
	}
	return &dto.MutationResponse{Slot: models.ScheduleSlot{ID: slotID}}, nil
}

func (m *timetableBoardMock) CancelSlot(_ context.Context, slotID string) (*dto.MutationResponse, error) {
	m.cancelledID = slotID
	return &dto.MutationResponse{Slot: models.ScheduleSlot{ID: slotID, Status: models.SlotStatusCancelled}}, nil
}

func (m *timetableBoardMock) Settings() models.GenerationSettings {
	return models.GenerationSettings{WorkingDays: []int{1, 2, 3, 4, 5}, PeriodsPerDay: 8}
}

type exporterMock struct{}

func (m *exporterMock) Export(context.Context, dto.ExportQuery) (*service.ExportFile, error) {
	return &service.ExportFile{Filename: "timetable-term-1.csv", ContentType: "text/csv", Data: []byte("Day\n")}, nil
}

func newTestContext(t *testing.T, method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	return c, w
}

func TestTimetableHandlerBoard(t *testing.T) {
	mockSvc := &timetableBoardMock{}
	h := &TimetableHandler{board: mockSvc}
	c, w := newTestContext(t, http.MethodGet, "/timetable/board?termId=term-1&day=1&day=3&search=math", nil)

	h.Board(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "term-1", mockSvc.boardQuery.TermID)
	assert.Equal(t, []int{1, 3}, mockSvc.boardQuery.Days)
	assert.Equal(t, "math", mockSvc.boardQuery.Search)
}

func TestTimetableHandlerConflictsRequiresTerm(t *testing.T) {
	h := &TimetableHandler{board: &timetableBoardMock{}}
	c, w := newTestContext(t, http.MethodGet, "/timetable/conflicts", nil)

	h.Conflicts(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableHandlerConflicts(t *testing.T) {
	mockSvc := &timetableBoardMock{}
	h := &TimetableHandler{board: mockSvc}
	c, w := newTestContext(t, http.MethodGet, "/timetable/conflicts?termId=term-1", nil)

	h.Conflicts(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "term-1", mockSvc.detectedTerm)
}

func TestTimetableHandlerCreateSlot(t *testing.T) {
	h := &TimetableHandler{board: &timetableBoardMock{}}
	payload, _ := json.Marshal(dto.CreateSlotRequest{
		TermID:       "term-1",
		DayOfWeek:    1,
		PeriodNumber: 1,
		TeacherID:    "t1",
		ClassID:      "c1",
		SubjectID:    "sub1",
	})
	c, w := newTestContext(t, http.MethodPost, "/timetable/slots", payload)

	h.CreateSlot(c)

	require.Equal(t, http.StatusCreated, w.Code)
}

func TestTimetableHandlerCreateSlotBadJSON(t *testing.T) {
	h := &TimetableHandler{board: &timetableBoardMock{}}
	c, w := newTestContext(t, http.MethodPost, "/timetable/slots", []byte(`{"termId":`))

	h.CreateSlot(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableHandlerMoveSlot(t *testing.T) {
	mockSvc := &timetableBoardMock{}
	h := &TimetableHandler{board: mockSvc}
	payload, _ := json.Marshal(dto.MoveSlotRequest{DayOfWeek: 2, PeriodNumber: 3, ConfirmSwap: true})
	c, w := newTestContext(t, http.MethodPost, "/timetable/slots/s1/move", payload)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}

	h.MoveSlot(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "s1", mockSvc.moveID)
	assert.True(t, mockSvc.moveReq.ConfirmSwap)
}

func TestTimetableHandlerMoveSlotConflictStatus(t *testing.T) {
	mockSvc := &timetableBoardMock{
		moveErr: appErrors.Clone(appErrors.ErrConflict, "target cell is occupied; confirm the swap to proceed"),
	}
	h := &TimetableHandler{board: mockSvc}
	payload, _ := json.Marshal(dto.MoveSlotRequest{DayOfWeek: 2, PeriodNumber: 3})
	c, w := newTestContext(t, http.MethodPost, "/timetable/slots/s1/move", payload)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}

	h.MoveSlot(c)

	require.Equal(t, http.StatusConflict, w.Code)
}

func TestTimetableHandlerCancelSlot(t *testing.T) {
	mockSvc := &timetableBoardMock{}
	h := &TimetableHandler{board: mockSvc}
	c, w := newTestContext(t, http.MethodPost, "/timetable/slots/s1/cancel", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}

	h.CancelSlot(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "s1", mockSvc.cancelledID)
}

func TestTimetableHandlerSettings(t *testing.T) {
	h := &TimetableHandler{board: &timetableBoardMock{}}
	c, w := newTestContext(t, http.MethodGet, "/timetable/settings", nil)

	h.Settings(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "periods_per_day")
}

func TestTimetableHandlerExport(t *testing.T) {
	h := &TimetableHandler{exporter: &exporterMock{}}
	c, w := newTestContext(t, http.MethodGet, "/timetable/export?termId=term-1&format=csv", nil)

	h.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "timetable-term-1.csv")
}
