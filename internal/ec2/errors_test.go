package ec2

import (
	"fmt"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
)

func apiError(code string) error {
	return fmt.Errorf("wrapped: %w", &smithy.GenericAPIError{
		Code:    code,
		Message: "synthetic",
	})
}

func TestIsGone(t *testing.T) {
	assert.True(t, isGone(apiError("InvalidVpcID.NotFound")))
	assert.True(t, isGone(apiError("InvalidGroup.NotFound")))
	assert.True(t, isGone(apiError("InvalidKeyPair.NotFound")))
	assert.True(t, isGone(apiError("InvalidRoute.NotFound")))
	assert.True(t, isGone(apiError("Gateway.NotAttached")))

	assert.False(t, isGone(apiError("UnauthorizedOperation")))
	assert.False(t, isGone(apiError("RequestLimitExceeded")))
	assert.False(t, isGone(fmt.Errorf("plain error")))
	assert.False(t, isGone(nil))
}

func TestIgnoreGone(t *testing.T) {
	assert.NoError(t, ignoreGone(nil))
	assert.NoError(t, ignoreGone(apiError("InvalidSubnetID.NotFound")))
	assert.Error(t, ignoreGone(apiError("DependencyViolation")))
}
