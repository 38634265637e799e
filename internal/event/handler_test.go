package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sharath018/event-gift-backend/internal/auth"
	"github.com/sharath018/event-gift-backend/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestParseGiftIDs(t *testing.T) {
	tests := []struct {
		name    string
		values  []string
		want    []uint
		wantErr bool
	}{
		{name: "json numbers", values: []string{"[1, 2]"}, want: []uint{1, 2}},
		{name: "json strings", values: []string{`["3","4"]`}, want: []uint{3, 4}},
		{name: "comma list", values: []string{"5, 6,"}, want: []uint{5, 6}},
		{name: "repeated field", values: []string{"7", "8"}, want: []uint{7, 8}},
		{name: "empty", values: nil, want: []uint{}},
		{name: "not a number", values: []string{"1,x"}, wantErr: true},
		{name: "broken json", values: []string{"[1,"}, wantErr: true},
		{name: "zero", values: []string{"0"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseGiftIDs(tt.values)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func withPrincipal(p auth.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.PrincipalKey, p)
		c.Next()
	}
}

func TestHandlerCreateActivateAndPublic(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)

	r := gin.New()
	r.POST("/events", h.Create)
	r.PUT("/events/:id/status", h.SetStatus)
	r.GET("/events/public/:id", h.GetPublic)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := map[string]string{
		"eventName":       "Sharma Wedding",
		"contactPerson":   "Anil Sharma",
		"contactNo":       "9876543210",
		"functionName":    "Reception",
		"functionType":    "Wedding",
		"relationEnabled": "false",
		"agentId":         fmt.Sprint(f.agent.ID),
		"eventDate":       "2026-12-05",
		"gifts":           fmt.Sprintf("[%d,%d]", f.gifts[0].ID, f.gifts[1].ID),
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/events", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Event Event `json:"event"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Len(t, created.Event.Gifts, 2)
	id := created.Event.ID

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/events/public/%d", id), nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPut, fmt.Sprintf("/events/%d/status", id), strings.NewReader(`{"status":"active"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/events/public/%d", id), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "contactNo")
	assert.NotContains(t, rec.Body.String(), "9876543210")
}

func TestHandlerAgentScope(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)

	r := gin.New()
	r.GET("/events/active/:agentId", withPrincipal(auth.Principal{UserID: f.agent.ID, Role: auth.RoleAgent}), h.ListActiveForAgent)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/events/active/%d", f.agent.ID), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"events":[]}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/events/active/%d", f.other.ID), nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
