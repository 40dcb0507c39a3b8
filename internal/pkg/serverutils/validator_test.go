package serverutils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type sampleRequest struct {
	SessionId string `json:"session_id" validate:"required,max=128"`
	Message   string `json:"message" validate:"required,max=4000"`
	Email     string `json:"email" validate:"omitempty,email"`
}

func TestValidateRequest(t *testing.T) {
	valid := &sampleRequest{SessionId: "abc", Message: "hello"}
	assert.NoError(t, ValidateRequest(valid))

	missing := &sampleRequest{}
	err := ValidateRequest(missing)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "SessionId")
	assert.Contains(t, err.Error(), "Message")

	tooLong := &sampleRequest{SessionId: strings.Repeat("x", 129), Message: "hi"}
	err = ValidateRequest(tooLong)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "max")

	badEmail := &sampleRequest{SessionId: "abc", Message: "hi", Email: "not-an-email"}
	err = ValidateRequest(badEmail)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "email")
}

func TestResponseEnvelope(t *testing.T) {
	ok := SuccessResponse("saved", map[string]string{"id": "1"})
	assert.True(t, ok.Success)
	assert.Equal(t, 200, ok.Code)
	assert.Equal(t, "saved", ok.Message)

	fail := ErrorResponse(404, "not found")
	assert.False(t, fail.Success)
	assert.Equal(t, 404, fail.Code)
	assert.Equal(t, "not found", fail.Message)
}
