package codebeamer

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// RemoteError is returned when a request fails in transport or the remote
// answers with a non-success status.
type RemoteError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *RemoteError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("%s: %s: status %d: %v", e.Op, e.URL, e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.URL, e.Err)
	default:
		return fmt.Sprintf("%s: %s: unexpected status %d", e.Op, e.URL, e.StatusCode)
	}
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// IsRemoteError reports whether err or any error it wraps is a RemoteError.
func IsRemoteError(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}

func basicAuth(creds Credentials) string {
	token := base64.StdEncoding.EncodeToString([]byte(creds.Username + ":" + creds.Password))
	return "Basic " + token
}
