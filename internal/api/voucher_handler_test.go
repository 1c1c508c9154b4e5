package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func offsetContext(t *testing.T, rawQuery string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/vouchers/queue/fleet?"+rawQuery, nil)
	return c, recorder
}

func TestQueryOffset(t *testing.T) {
	tests := []struct {
		name       string
		rawQuery   string
		wantOffset int
		wantOK     bool
	}{
		{name: "absent defaults to zero", rawQuery: "", wantOffset: 0, wantOK: true},
		{name: "valid value", rawQuery: "offset=25", wantOffset: 25, wantOK: true},
		{name: "non-numeric rejected", rawQuery: "offset=abc", wantOffset: 0, wantOK: false},
		{name: "negative rejected", rawQuery: "offset=-5", wantOffset: 0, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, recorder := offsetContext(t, tt.rawQuery)

			offset, ok := queryOffset(c)
			assert.Equal(t, tt.wantOffset, offset)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Equal(t, http.StatusBadRequest, recorder.Code)
			}
		})
	}
}
