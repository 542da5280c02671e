// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsboard Contributors

package postgres

import (
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// ulidToStringPtr converts an optional ULID to its string form for a
// nullable column.
func ulidToStringPtr(id *ulid.ULID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

// parseOptionalULID parses a nullable ULID column value.
func parseOptionalULID(s *string, column string) (*ulid.ULID, error) {
	if s == nil {
		return nil, nil
	}
	id, err := ulid.Parse(*s)
	if err != nil {
		return nil, oops.Code("ACCOUNT_INVALID_ID").
			With("operation", "parse "+column).
			With("value", *s).
			Wrap(err)
	}
	return &id, nil
}
