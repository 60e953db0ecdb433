package asynqutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisOpt(t *testing.T) {
	opt, err := RedisOpt("redis://localhost:6379/2")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opt.Addr)
	assert.Equal(t, 2, opt.DB)
	assert.Empty(t, opt.Password)

	opt, err = RedisOpt("redis://:secret@cache:6380")
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opt.Addr)
	assert.Equal(t, 0, opt.DB)
	assert.Equal(t, "secret", opt.Password)
}

func TestRedisOpt_Invalid(t *testing.T) {
	_, err := RedisOpt("redis://localhost:6379/db")
	assert.Error(t, err)

	_, err = RedisOpt("not a url")
	assert.Error(t, err)
}
