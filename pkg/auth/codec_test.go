package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/skybook/airline/pkg/errors"
)

const testSecret = "test-secret-that-is-long-enough-for-hs256"

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestCodec(t *testing.T, clock *fakeClock) *Codec {
	t.Helper()
	c, err := NewCodec(testSecret, 15*time.Minute, 7*24*time.Hour, WithClock(clock.Now))
	require.NoError(t, err)
	return c
}

func TestNewCodec_Validation(t *testing.T) {
	_, err := NewCodec("", time.Minute, time.Hour)
	assert.Error(t, err)

	_, err = NewCodec(testSecret, time.Hour, time.Minute)
	assert.Error(t, err)

	_, err = NewCodec(testSecret, time.Hour, time.Hour)
	assert.Error(t, err, "refresh TTL must be strictly longer")

	_, err = NewCodec(testSecret, 500*time.Millisecond, time.Hour)
	assert.Error(t, err, "sub-second access TTL")
}

func TestCodec_AccessRoundTrip(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)}
	codec := newTestCodec(t, clock)

	tests := []struct {
		subject int64
		roles   []string
	}{
		{1, []string{"ROLE_USER"}},
		{42, []string{"ROLE_ADMIN", "ROLE_USER"}},
		{9_000_000_000, nil},
	}
	for _, tt := range tests {
		token, err := codec.IssueAccessToken(tt.subject, tt.roles)
		require.NoError(t, err)

		for _, offset := range []time.Duration{0, time.Minute, 15*time.Minute - time.Second} {
			clock.t = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC).Add(offset)
			p, err := codec.VerifyAccess(token)
			require.NoError(t, err, "offset %s", offset)
			assert.Equal(t, tt.subject, p.SubjectID)
			assert.ElementsMatch(t, tt.roles, p.Roles)
		}
		clock.t = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	}
}

func TestCodec_ExpiryBoundary(t *testing.T) {
	issued := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: issued}
	codec := newTestCodec(t, clock)

	access, err := codec.IssueAccessToken(5, []string{"ROLE_USER"})
	require.NoError(t, err)
	refresh, err := codec.IssueRefreshToken(5)
	require.NoError(t, err)

	accessExp := issued.Add(15 * time.Minute)
	clock.t = accessExp.Add(-time.Millisecond)
	_, err = codec.VerifyAccess(access)
	assert.NoError(t, err, "valid 1ms before expiry")

	clock.t = accessExp
	_, err = codec.VerifyAccess(access)
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid, "invalid exactly at expiry")

	refreshExp := issued.Add(7 * 24 * time.Hour)
	clock.t = refreshExp.Add(-time.Millisecond)
	sub, err := codec.VerifyRefresh(refresh)
	require.NoError(t, err)
	assert.Equal(t, int64(5), sub)

	clock.t = refreshExp
	_, err = codec.VerifyRefresh(refresh)
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}

func TestCodec_TamperedSignature(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	codec := newTestCodec(t, clock)

	token, err := codec.IssueAccessToken(3, []string{"ROLE_USER"})
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	// The final character carries unused padding bits, so skip it.
	for i := 0; i < len(sig)-1; i++ {
		tampered := append([]byte(nil), sig...)
		if tampered[i] == 'A' {
			tampered[i] = 'B'
		} else {
			tampered[i] = 'A'
		}
		bad := parts[0] + "." + parts[1] + "." + string(tampered)
		_, err := codec.VerifyAccess(bad)
		assert.ErrorIs(t, err, apperrors.ErrTokenInvalid, "byte %d", i)
	}

	forged := parts[0] + "." + strings.TrimRight(parts[1], "=") + "e30" + "." + parts[2]
	_, err = codec.VerifyAccess(forged)
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid, "payload changed")
}

func TestCodec_RejectsWrongKindAndGarbage(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	codec := newTestCodec(t, clock)

	access, err := codec.IssueAccessToken(3, nil)
	require.NoError(t, err)
	refresh, err := codec.IssueRefreshToken(3)
	require.NoError(t, err)

	_, err = codec.VerifyRefresh(access)
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
	_, err = codec.VerifyAccess(refresh)
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)

	for _, bad := range []string{"", "abc", "a.b.c", access + "x"} {
		_, err = codec.VerifyAccess(bad)
		assert.ErrorIs(t, err, apperrors.ErrTokenInvalid, bad)
	}

	other, err := NewCodec("a-different-secret-of-decent-length!!", time.Minute, time.Hour, WithClock(clock.Now))
	require.NoError(t, err)
	foreign, err := other.IssueAccessToken(3, nil)
	require.NoError(t, err)
	_, err = codec.VerifyAccess(foreign)
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}
