// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package uuid_test

import (
	"testing"

	googleuuid "github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/warden/pkg/uuid"
)

func TestNew_Version7AndOrdered(t *testing.T) {
	first := uuid.New()
	second := uuid.New()

	parsed, err := googleuuid.Parse(first)
	require.NoError(t, err)
	assert.Equal(t, googleuuid.Version(7), parsed.Version())

	assert.NotEqual(t, first, second)
	assert.LessOrEqual(t, first[:13], second[:13])
}

func TestValid(t *testing.T) {
	assert.True(t, uuid.Valid(uuid.New()))
	assert.True(t, uuid.Valid("0190a0c4-7b3e-7cc1-9c1a-2f4f1b8e0a11"))

	for _, raw := range []string{"", "abc", "missing", "0190a0c47b3e7cc19c1a2f4f1b8e0a11", "{0190a0c4-7b3e-7cc1-9c1a-2f4f1b8e0a11}"} {
		assert.False(t, uuid.Valid(raw), raw)
	}
}
