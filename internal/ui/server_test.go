package ui

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"metaextractor/internal/exporter"
	"metaextractor/internal/model"
)

func testServer() *Server {
	catalog := &model.Catalog{
		Source:   "shop",
		Engine:   "sqlite",
		Database: "shop",
		Schemas: []model.Schema{{
			Name: "main",
			Tables: []model.Table{{
				Name:    "customers",
				Kind:    model.TableKindTable,
				Columns: []model.Column{{Name: "id", Position: 1, Type: model.SemanticType{Kind: model.KindInteger, Bits: 64, Native: "INTEGER"}}},
			}},
		}},
	}
	results := []model.ExtractionResult{
		model.Succeeded(catalog),
		model.Failed("legacy", "oracle", model.Failure{Kind: model.ErrorKindConnection, Message: "ORA-12541: TNS:no listener"}),
	}
	return NewServer(results, exporter.Config{Title: "Preview"}, "shop")
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestPreview(t *testing.T) {
	rec := get(t, testServer().Handler(), "/")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Body.String(), "<title>Preview</title>")
	require.Contains(t, rec.Body.String(), "ORA-12541")
	require.Empty(t, rec.Header().Get("Content-Disposition"))
}

func TestResultsAPI(t *testing.T) {
	rec := get(t, testServer().Handler(), "/api/results")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Body.String(), `"format_version": "1"`)
	require.Contains(t, rec.Body.String(), `"name": "legacy"`)
}

func TestExportDownloads(t *testing.T) {
	h := testServer().Handler()
	for _, format := range exporter.GetSupportedFormats() {
		t.Run(format, func(t *testing.T) {
			rec := get(t, h, "/export/"+format)
			require.Equal(t, http.StatusOK, rec.Code)
			require.NotZero(t, rec.Body.Len())
			require.Contains(t, rec.Header().Get("Content-Disposition"), `filename="shop.`)
		})
	}
}

func TestExportUnknownFormat(t *testing.T) {
	rec := get(t, testServer().Handler(), "/export/pdf")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownPath(t *testing.T) {
	rec := get(t, testServer().Handler(), "/missing")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
