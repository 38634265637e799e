package gift

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func multipartBody(t *testing.T, name string, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("giftName", name))
	if image != nil {
		part, err := w.CreateFormFile("giftImage", "gift.png")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestHandlerCreateAndList(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)

	r := gin.New()
	r.POST("/gifts", h.Create)
	r.GET("/gifts", h.List)

	body, ctype := multipartBody(t, "Silver Coin", pngBytes)
	req := httptest.NewRequest(http.MethodPost, "/gifts", body)
	req.Header.Set("Content-Type", ctype)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Success bool `json:"success"`
		Data    Gift `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.True(t, created.Success)
	assert.Equal(t, "Silver Coin", created.Data.Name)

	body, ctype = multipartBody(t, "No Image", nil)
	req = httptest.NewRequest(http.MethodPost, "/gifts", body)
	req.Header.Set("Content-Type", ctype)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/gifts", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Count int    `json:"count"`
		Data  []Gift `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Equal(t, 1, listed.Count)
}

func TestHandlerRejectsBadID(t *testing.T) {
	f := newFixture(t)
	r := gin.New()
	r.GET("/gifts/:id", NewHandler(f.svc).Get)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/gifts/abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/gifts/42", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
