package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTeX = `\documentclass{article}
\begin{document}
\section{Introduction}
This is \textbf{important} text.
\end{document}
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := New(nil, t.TempDir())
	require.NoError(t, err)
	return s
}

// uploadRequest builds a multipart convert request with the given file
// and form fields.
func uploadRequest(t *testing.T, filename, content string, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if filename != "" {
		fw, err := mw.CreateFormFile("document", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/convert", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func doRequest(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) convertResponse {
	t.Helper()
	var resp convertResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestConvertTexUpload(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, uploadRequest(t, "paper.tex", sampleTeX, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
	assert.Greater(t, resp.OutputSize, int64(0))
	require.True(t, strings.HasPrefix(resp.DownloadURL, "/download/"), resp.DownloadURL)
	assert.True(t, strings.HasSuffix(resp.DownloadURL, ".docx"))

	// The converted file is downloadable.
	dl := doRequest(s, httptest.NewRequest(http.MethodGet, resp.DownloadURL, nil))
	require.Equal(t, http.StatusOK, dl.Code)
	data, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Contains(t, dl.Header().Get("Content-Disposition"), "attachment")
}

func TestConvertWithOptions(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, uploadRequest(t, "paper.tex", sampleTeX, map[string]string{
		"font_size":   "11",
		"doc_type":    "report",
		"extract_bib": "true",
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decodeResponse(t, rec).Success)
}

func TestConvertRejectsUnsupportedType(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, uploadRequest(t, "paper.pdf", "%PDF-1.4", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
}

func TestConvertMissingDocumentField(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, uploadRequest(t, "", "", map[string]string{"doc_type": "article"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, decodeResponse(t, rec).Success)
}

func TestConvertRejectsBadOptionValues(t *testing.T) {
	s := newTestServer(t)

	tests := map[string]map[string]string{
		"malformed font size":  {"font_size": "big"},
		"font size range":      {"font_size": "9"},
		"malformed spacing":    {"line_spacing": "wide"},
		"image width range":    {"image_width": "2.0"},
		"unknown doc type":     {"doc_type": "letter"},
		"malformed image data": {"image_width": "x"},
	}
	for name, fields := range tests {
		t.Run(name, func(t *testing.T) {
			rec := doRequest(s, uploadRequest(t, "paper.tex", sampleTeX, fields))
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestConvertRejectsCorruptInput(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, uploadRequest(t, "doc.docx", "this is not a zip archive", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, decodeResponse(t, rec).Success)
}

func TestConvertRejectsBrokenMarkup(t *testing.T) {
	s := newTestServer(t)

	// Unterminated document environment is an invalid input file.
	rec := doRequest(s, uploadRequest(t, "broken.tex", `\begin{document}\section{A}`, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.False(t, decodeResponse(t, rec).Success)
}

func TestDownloadRejectsPathTraversal(t *testing.T) {
	s := newTestServer(t)

	for _, name := range []string{"..%2F..%2Fetc%2Fpasswd", "..", ".hidden"} {
		rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/download/"+name, nil))
		assert.NotEqual(t, http.StatusOK, rec.Code, "name %q should be rejected", name)
	}
}

func TestDownloadMissingFile(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/download/nope.tex", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
