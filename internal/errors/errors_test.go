package errors

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructorsCarryStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, NotFound("task").Status)
	assert.Equal(t, "task not found", NotFound("task").Message)
	assert.Equal(t, http.StatusConflict, Conflict("task is already running").Status)
	assert.Equal(t, http.StatusUnprocessableEntity, ValidationError("name", "required").Status)
	assert.Equal(t, http.StatusTooManyRequests, RateLimited().Status)
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "VALIDATION_ERROR: required (field: name)", ValidationError("name", "required").Error())
	assert.Equal(t, "UNAUTHORIZED: nope", Unauthorized("nope").Error())
}

func TestUnknownCodeDefaultsTo500(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, ErrorCode("WAT").StatusCode())
}
