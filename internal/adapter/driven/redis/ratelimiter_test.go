package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeScripter answers EvalSha with a canned script result and records the
// keys and arguments it was called with. Other Scripter methods are unused.
type fakeScripter struct {
	goredis.Scripter

	result any
	err    error
	keys   []string
	args   []any
}

func (f *fakeScripter) EvalSha(ctx context.Context, _ string, keys []string, args ...any) *goredis.Cmd {
	f.keys = keys
	f.args = args
	return goredis.NewCmdResult(f.result, f.err)
}

func (f *fakeScripter) Eval(ctx context.Context, script string, keys []string, args ...any) *goredis.Cmd {
	return f.EvalSha(ctx, script, keys, args...)
}

func newTestLimiter(s *fakeScripter) *Limiter {
	l := NewLimiter(s, "codevault:verify", 10, time.Minute)
	l.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }
	return l
}

func TestLimiter_Allowed(t *testing.T) {
	s := &fakeScripter{result: []any{int64(1), int64(9), int64(0)}}
	l := newTestLimiter(s)

	d, err := l.Allow(context.Background(), "203.0.113.7")
	require.NoError(t, err)

	assert.True(t, d.Allowed)
	assert.Equal(t, 10, d.Limit)
	assert.Equal(t, 9, d.Remaining)
	assert.Zero(t, d.RetryAfter)

	assert.Equal(t, []string{"codevault:verify:203.0.113.7"}, s.keys)
	assert.Equal(t, []any{int64(1_700_000_000_000), 10, int64(60_000), int64(660)}, s.args)
}

func TestLimiter_Blocked(t *testing.T) {
	s := &fakeScripter{result: []any{int64(0), int64(0), int64(42_500)}}
	l := newTestLimiter(s)

	d, err := l.Allow(context.Background(), "203.0.113.7")
	require.NoError(t, err)

	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, 42500*time.Millisecond, d.RetryAfter)
}

func TestLimiter_ScriptError(t *testing.T) {
	s := &fakeScripter{err: errors.New("connection refused")}
	l := newTestLimiter(s)

	_, err := l.Allow(context.Background(), "k")
	assert.ErrorContains(t, err, "connection refused")
}

func TestLimiter_UnexpectedResult(t *testing.T) {
	for _, result := range []any{"OK", []any{int64(1)}} {
		s := &fakeScripter{result: result}
		l := newTestLimiter(s)

		_, err := l.Allow(context.Background(), "k")
		assert.Error(t, err)
	}
}

func TestNewLimiter_Clamps(t *testing.T) {
	l := NewLimiter(&fakeScripter{}, "p", 0, 0)
	assert.Equal(t, 1, l.capacity)
	assert.Equal(t, time.Minute, l.interval)
}

func TestAsInt64(t *testing.T) {
	tests := []struct {
		in   any
		want int64
	}{
		{in: int64(7), want: 7},
		{in: 7, want: 7},
		{in: 7.9, want: 7},
		{in: "12", want: 12},
		{in: "nope", want: 0},
		{in: nil, want: 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, asInt64(tt.in), "%#v", tt.in)
	}
}
