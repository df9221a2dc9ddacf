package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dojo-admin-api/internal/dto"
	"github.com/noah-isme/dojo-admin-api/internal/models"
	appErrors "github.com/noah-isme/dojo-admin-api/pkg/errors"
)

type attendanceServiceMock struct {
	setErr   error
	lessonID int64
	req      dto.SetAttendanceRequest
	query    dto.AttendanceHistoryQuery
}

func (m *attendanceServiceMock) SetStatus(ctx context.Context, lessonID int64, req dto.SetAttendanceRequest) (*models.Attendance, error) {
	m.lessonID, m.req = lessonID, req
	if m.setErr != nil {
		return nil, m.setErr
	}
	status := models.AttendanceStatus(req.Status)
	return &models.Attendance{LessonID: lessonID, ClientID: req.ClientID, Status: &status}, nil
}

func (m *attendanceServiceMock) GetForLesson(ctx context.Context, lessonID int64) ([]models.AttendanceRecord, error) {
	return []models.AttendanceRecord{{Attendance: models.Attendance{LessonID: lessonID, ClientID: 1}, ClientName: "Anna"}}, nil
}

func (m *attendanceServiceMock) History(ctx context.Context, clientID int64, query dto.AttendanceHistoryQuery) ([]models.AttendanceHistoryRow, error) {
	m.query = query
	return nil, nil
}

func (m *attendanceServiceMock) Summary(ctx context.Context, clientID int64, query dto.AttendanceHistoryQuery) (*models.AttendanceSummary, error) {
	m.query = query
	return &models.AttendanceSummary{Present: 3, Absent: 1, Percent: 75}, nil
}

func TestAttendanceHandlerSetStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &attendanceServiceMock{}
	handler := NewAttendanceHandler(mockSvc)

	c, w := newGinContext(http.MethodPut, "/lessons/4/attendance", []byte(`{"client_id":9,"status":"present"}`))
	c.Params = gin.Params{{Key: "id", Value: "4"}}
	handler.SetStatus(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(4), mockSvc.lessonID)
	assert.Equal(t, dto.SetAttendanceRequest{ClientID: 9, Status: "present"}, mockSvc.req)

	var body struct {
		Data models.Attendance `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, models.IsPresent(body.Data.Status))
}

func TestAttendanceHandlerSetStatusGateErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := map[string]error{
		"NO_ACTIVE_SUBSCRIPTION": appErrors.ErrNoActiveSubscription,
		"SUBSCRIPTION_UNPAID":    appErrors.ErrSubscriptionUnpaid,
		"VISIT_LIMIT_REACHED":    appErrors.ErrVisitLimitReached,
	}
	for code, svcErr := range cases {
		handler := NewAttendanceHandler(&attendanceServiceMock{setErr: svcErr})
		c, w := newGinContext(http.MethodPut, "/lessons/4/attendance", []byte(`{"client_id":9,"status":"present"}`))
		c.Params = gin.Params{{Key: "id", Value: "4"}}
		handler.SetStatus(c)

		require.Equal(t, http.StatusUnprocessableEntity, w.Code, code)
		assert.Contains(t, w.Body.String(), code)
	}
}

func TestAttendanceHandlerRejectsMalformedPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAttendanceHandler(&attendanceServiceMock{})

	c, w := newGinContext(http.MethodPut, "/lessons/4/attendance", []byte(`{"client_id":"nine"}`))
	c.Params = gin.Params{{Key: "id", Value: "4"}}
	handler.SetStatus(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAttendanceHandlerSummaryBindsRange(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &attendanceServiceMock{}
	handler := NewAttendanceHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/clients/2/attendance/summary?from=2025-03-01&to=2025-03-31", nil)
	c.Params = gin.Params{{Key: "id", Value: "2"}}
	handler.Summary(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.AttendanceHistoryQuery{From: "2025-03-01", To: "2025-03-31"}, mockSvc.query)
	assert.Contains(t, w.Body.String(), `"percent":75`)
}
