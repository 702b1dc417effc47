package common

import (
	"encoding/hex"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------- MakeRandHexString ----------

func TestMakeRandHexString_LengthAndHex(t *testing.T) {
	const n = 16
	s, err := MakeRandHexString(n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s) != n*2 {
		t.Fatalf("expected hex length %d, got %d", n*2, len(s))
	}
	if _, err := hex.DecodeString(s); err != nil {
		t.Fatalf("string is not valid hex: %v", err)
	}
}

func TestMakeRandHexString_ZeroSize(t *testing.T) {
	s, err := MakeRandHexString(0)
	if err != nil {
		t.Fatalf("unexpected error for size=0: %v", err)
	}
	if s != "" {
		t.Fatalf("expected empty string for size=0, got %q", s)
	}
}

// ---------- WipeByteArray ----------

func TestWipeByteArray_ZerosBuffer(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5}
	WipeByteArray(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("expected buf[%d]==0, got %d", i, v)
		}
	}
}

func TestWipeByteArray_NilSafe(t *testing.T) {
	WipeByteArray(nil)
}

// ---------- NormalizeEmail ----------

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@b.com", NormalizeEmail("  A@B.Com "))
	assert.Equal(t, "", NormalizeEmail("   "))
}

// ---------- ValidationError ----------

func TestValidationError_MatchesSentinel(t *testing.T) {
	ve := &ValidationError{}
	require.NoError(t, ve.OrNil())

	ve.Add("email", "must be a valid email address")
	ve.Add("password", "must contain a digit")

	err := fmt.Errorf("wrapped: %w", ve.OrNil())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	var got *ValidationError
	require.True(t, errors.As(err, &got))
	assert.Len(t, got.Fields, 2)
	assert.Contains(t, err.Error(), "email: must be a valid email address")
	assert.Contains(t, err.Error(), "password: must contain a digit")
}
