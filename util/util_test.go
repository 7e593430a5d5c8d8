package util

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/venicegeo/bf-s2reader/model"
)

func TestBasicLogContext_SessionIDIsStable(t *testing.T) {
	ctx := &BasicLogContext{}
	first := ctx.SessionID()

	assert.NotEmpty(t, first)
	assert.Equal(t, first, ctx.SessionID())
	assert.Equal(t, AppName, ctx.AppName())
	assert.NotEqual(t, first, (&BasicLogContext{}).SessionID())
}

func TestSetupLogger_JSON(t *testing.T) {
	prev := Logger()
	defer SetLogger(prev)

	var buf bytes.Buffer
	require.NoError(t, SetupLogger(&buf, "debug", "json"))

	LogDebug(&BasicLogContext{}, "reading band", "tag", "B02")
	assert.Contains(t, buf.String(), `"msg":"reading band"`)
	assert.Contains(t, buf.String(), `"tag":"B02"`)
	assert.Contains(t, buf.String(), `"app":"bf-s2reader"`)
}

func TestSetupLogger_Errors(t *testing.T) {
	var buf bytes.Buffer
	assert.NotNil(t, SetupLogger(&buf, "loud", "text"))
	assert.NotNil(t, SetupLogger(&buf, "info", "xml"))
}

func TestLogSimpleErr_Wraps(t *testing.T) {
	prev := Logger()
	defer SetLogger(prev)
	var buf bytes.Buffer
	require.NoError(t, SetupLogger(&buf, "info", "text"))

	err := LogSimpleErr(&BasicLogContext{}, "Failed to read band.", model.ErrNotFound)

	assert.True(t, errors.Is(err, model.ErrNotFound))
	assert.Equal(t, "Failed to read band: not found", err.Error())
	assert.Contains(t, buf.String(), "Failed to read band.")
}

func TestLogAudit_Severity(t *testing.T) {
	prev := Logger()
	defer SetLogger(prev)
	var buf bytes.Buffer
	require.NoError(t, SetupLogger(&buf, "info", "text"))

	LogAudit(&BasicLogContext{}, LogAuditInput{Actor: "main()", Action: "startup", Actee: "self", Message: "Application Startup", Severity: ERROR})

	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "actor=main()")
}

func TestGetTargetResolution(t *testing.T) {
	t.Setenv(S2_TARGET_RESOLUTION, "20")
	assert.Equal(t, 20, GetTargetResolution(10))

	t.Setenv(S2_TARGET_RESOLUTION, "-5")
	assert.Equal(t, 10, GetTargetResolution(10))

	os.Unsetenv(S2_TARGET_RESOLUTION)
	assert.Equal(t, 10, GetTargetResolution(10))
}

func TestGetPortStr(t *testing.T) {
	t.Setenv(PORT, "9090")
	assert.Equal(t, ":9090", GetPortStr())
}

func TestGetS3Region_Default(t *testing.T) {
	t.Setenv(S2_S3_REGION, "")
	assert.Equal(t, "eu-central-1", GetS3Region())
}

func TestStatusForError(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusForError(fmt.Errorf("%w: B02", model.ErrNotFound)))
	assert.Equal(t, http.StatusBadRequest, StatusForError(model.ErrUnrecognized))
	assert.Equal(t, http.StatusConflict, StatusForError(model.ErrInvalidState))
	assert.Equal(t, http.StatusTeapot, StatusForError(HTTPErr{Status: http.StatusTeapot}))
	assert.Equal(t, http.StatusInternalServerError, StatusForError(errors.New("boom")))
}

func TestHTTPError(t *testing.T) {
	req := httptest.NewRequest("GET", "/catalog/products/x", nil)
	rec := httptest.NewRecorder()

	HTTPError(req, rec, &BasicLogContext{}, "Product not found: x", http.StatusNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Product not found: x")
}
