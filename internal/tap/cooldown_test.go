package tap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCooldownAllowArmsWindow(t *testing.T) {
	now := time.Unix(1000, 0)
	cd := newCooldownMap(60 * time.Second)
	cd.now = func() time.Time { return now }

	assert.True(t, cd.Allow("g:u:20260831"))
	assert.False(t, cd.Allow("g:u:20260831"))

	now = now.Add(59 * time.Second)
	assert.False(t, cd.Allow("g:u:20260831"))

	now = now.Add(time.Second)
	assert.True(t, cd.Allow("g:u:20260831"))
}

func TestCooldownKeysIndependent(t *testing.T) {
	cd := newCooldownMap(60 * time.Second)
	assert.True(t, cd.Allow("g:a:20260831"))
	assert.True(t, cd.Allow("g:b:20260831"))
	assert.True(t, cd.Allow("g:a:20260901"))
	assert.Equal(t, 3, cd.Len())
}

func TestCooldownSweepRemovesExpired(t *testing.T) {
	now := time.Unix(1000, 0)
	cd := newCooldownMap(60 * time.Second)
	cd.now = func() time.Time { return now }

	cd.Allow("old")
	now = now.Add(30 * time.Second)
	cd.Allow("fresh")

	now = now.Add(31 * time.Second)
	removed := cd.Sweep()

	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, cd.Len())
	assert.False(t, cd.Allow("fresh"))
}
