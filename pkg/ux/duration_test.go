// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package ux

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDurationFormat(t *testing.T) {
	assert := assert.New(t)

	tests := []struct {
		d        time.Duration
		expected string
	}{
		{d: 48 * time.Hour, expected: "2 days"},
		{d: 42*time.Hour + 42*time.Minute, expected: "1 days 18 hours 42 minutes"},
		{d: 5 * time.Minute, expected: "5 minutes"},
		{d: 42*time.Minute + 42*time.Second, expected: "42 minutes 42 seconds"},
		{d: 300 * time.Millisecond, expected: "0 seconds"},
	}
	for _, tt := range tests {
		assert.Equal(tt.expected, FormatDuration(tt.d))
	}
}
