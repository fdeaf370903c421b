package ec2

import (
	"errors"
	"strings"

	"github.com/aws/smithy-go"
)

// isGone reports whether an EC2 API error means the resource no longer
// exists (or an attachment is already undone). Destroy treats these as
// success so a half-destroyed stack can be destroyed again.
//
// EC2 spells absence inconsistently across resource types
// ("InvalidVpcID.NotFound", "InvalidGroup.NotFound",
// "InvalidKeyPair.NotFound", "InvalidRoute.NotFound", ...), hence the suffix
// match.
func isGone(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	code := apiErr.ErrorCode()
	return strings.HasSuffix(code, ".NotFound") ||
		code == "Gateway.NotAttached" ||
		code == "InvalidParameterValue.AssociationNotFound"
}

// ignoreGone maps already-gone errors to nil.
func ignoreGone(err error) error {
	if err == nil || isGone(err) {
		return nil
	}
	return err
}
