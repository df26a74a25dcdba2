package handler_test

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdant-ops/gardenledger/internal/domain"
)

func multipartPhoto(t *testing.T, target, filename string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.Copy(part, bytes.NewReader(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestPhotoHandler_UploadAndDownload(t *testing.T) {
	e := newEnv(t)

	rr := e.do(http.MethodPost, e.planURL("/periods/2025/2"), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	period := decode[domain.ExecutionDTO](t, rr)
	photosURL := e.planURL("/executions/" + period.ID.String() + "/photos")

	rr = e.send(multipartPhoto(t, photosURL, "after.jpg", []byte("jpeg-bytes")))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	updated := decode[domain.ExecutionDTO](t, rr)
	require.Len(t, updated.Details.Photos, 1)
	ref := updated.Details.Photos[0]

	rr = e.do(http.MethodGet, photosURL+"?ref="+url.QueryEscape(ref), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "jpeg-bytes", rr.Body.String())
	assert.Equal(t, "image/jpeg", rr.Header().Get("Content-Type"))

	rr = e.do(http.MethodGet, photosURL+"?ref=someone-else.jpg", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = e.do(http.MethodGet, photosURL, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPhotoHandler_UploadErrors(t *testing.T) {
	e := newEnv(t)

	rr := e.do(http.MethodGet, e.planURL("/template"), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	template := decode[domain.ExecutionDTO](t, rr)

	rr = e.send(multipartPhoto(t, e.planURL("/executions/"+template.ID.String()+"/photos"), "a.jpg", []byte("x")))
	assert.Equal(t, http.StatusBadRequest, rr.Code, "the template takes no photos")

	req := httptest.NewRequest(http.MethodPost, e.planURL("/executions/"+template.ID.String()+"/photos"), bytes.NewBufferString("plain"))
	req.Header.Set("Content-Type", "text/plain")
	rr = e.send(req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
