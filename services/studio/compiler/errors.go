// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package compiler

import (
	"errors"
	"fmt"
)

var (
	// ErrChannelClosed indicates the progress channel has been closed.
	ErrChannelClosed = errors.New("progress channel closed")

	// ErrAlreadySubscribed indicates a second subscription for the same
	// correlation ID.
	ErrAlreadySubscribed = errors.New("correlation id already subscribed")
)

// BackendError is a non-2xx reply from the compiler service.
//
// The Detail field carries the backend-provided message verbatim so the
// user sees the compiler's own explanation.
type BackendError struct {
	StatusCode int
	Detail     string
}

func (e *BackendError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("compiler returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("compiler returned status %d: %s", e.StatusCode, e.Detail)
}
