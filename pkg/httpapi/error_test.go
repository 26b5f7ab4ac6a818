package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteError(rec, http.StatusBadRequest, "Missing query parameter q"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.JSONEq(t, `{"detail":"Missing query parameter q"}`, rec.Body.String())
}

func TestWriteRaw(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteRaw(rec, http.StatusOK, []byte(`[{"id":1}]`)))
	require.Equal(t, `[{"id":1}]`, rec.Body.String())
}
