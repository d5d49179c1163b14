package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestErrorFromMapsSentinels(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err    error
		status int
		code   string
	}{
		{ErrRingNotFound, http.StatusNotFound, "RING_NOT_FOUND"},
		{fmt.Errorf("update: %w", ErrSlugExists), http.StatusConflict, "SLUG_EXISTS"},
		{ErrImportRunning, http.StatusConflict, "IMPORT_RUNNING"},
		{ErrStorageUnconfigured, http.StatusServiceUnavailable, "STORAGE_UNCONFIGURED"},
		{fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		ErrorFrom(c, tc.err)

		if w.Code != tc.status {
			t.Errorf("%v: expected status %d, got %d", tc.err, tc.status, w.Code)
		}
		var resp Response
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Success || resp.Error == nil || resp.Error.Code != tc.code {
			t.Errorf("%v: unexpected envelope %+v", tc.err, resp)
		}
	}
}
