package response

import "errors"

var errInternal = errors.New("internal server error")
