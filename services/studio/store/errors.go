// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"errors"
	"fmt"
)

// ErrRecipeNotFound indicates no stored recipe exists for the given ID.
var ErrRecipeNotFound = errors.New("recipe not found")

// StoreError is a non-2xx reply from the pipeline store.
type StoreError struct {
	StatusCode int
	Detail     string
}

func (e *StoreError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("pipeline store returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("pipeline store returned status %d: %s", e.StatusCode, e.Detail)
}
