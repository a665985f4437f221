package keypad

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestPressRelease(t *testing.T) {
	k := New()
	k.Press(0, 0xA)
	assert.True(t, k.Pressed(0xA))
	assert.True(t, k.Pressed(0x1A), "key index masked to 4 bits")

	k.Release(0, 0xA)
	assert.False(t, k.Pressed(0xA))
	assert.Equal(t, uint64(2), k.Seq())
}

func TestIgnoresOtherPlayersAndKeys(t *testing.T) {
	k := New()
	k.Press(1, 3)
	k.Press(0, 16)
	assert.Equal(t, State{}, k.Snapshot())
	assert.Equal(t, uint64(0), k.Seq())
}

func TestRepeatedPressIsNotAChange(t *testing.T) {
	k := New()
	k.Press(0, 5)
	k.Press(0, 5)
	assert.Equal(t, uint64(1), k.Seq())
}

func TestChangeSince(t *testing.T) {
	k := New()
	_, changed := k.ChangeSince(0)
	assert.False(t, changed)

	mark := k.Seq()
	k.Press(0, 7)
	k.Release(0, 7)
	k.Press(0, 2)
	key, changed := k.ChangeSince(mark)
	assert.True(t, changed)
	assert.Equal(t, byte(7), key, "first change wins, even when already undone")

	key, changed = k.ChangeSince(k.Seq() - 1)
	assert.True(t, changed)
	assert.Equal(t, byte(2), key)

	_, changed = k.ChangeSince(k.Seq())
	assert.False(t, changed)
}

func TestChangeSinceOverflowKeepsOldest(t *testing.T) {
	k := New()
	for i := 0; i < historySize+10; i++ {
		k.Press(0, uint(i%NumKeys))
		k.Release(0, uint(i%NumKeys))
	}
	// 2*(historySize+10) changes; only the last historySize are kept
	key, changed := k.ChangeSince(0)
	assert.True(t, changed)
	oldest := k.Seq() - historySize + 1
	assert.Equal(t, byte(((oldest-1)/2)%NumKeys), key)
}

func TestRestoreIsNotAChange(t *testing.T) {
	k := New()
	k.Restore(State{3: true})
	assert.True(t, k.Pressed(3))
	assert.Equal(t, uint64(0), k.Seq())
}

func TestLayout(t *testing.T) {
	tests := []struct {
		r    rune
		want byte
	}{
		{'1', 0x1}, {'4', 0xC}, {'q', 0x4}, {'R', 0xD},
		{'a', 0x7}, {'f', 0xE}, {'z', 0xA}, {'x', 0x0}, {'C', 0xB}, {'v', 0xF},
	}
	for _, tt := range tests {
		got, ok := KeyForChar(tt.r)
		assert.True(t, ok, string(tt.r))
		assert.Equal(t, tt.want, got, string(tt.r))
	}
	_, ok := KeyForChar('p')
	assert.False(t, ok)

	seen := map[byte]bool{}
	for key := byte(0); key < NumKeys; key++ {
		r := CharForKey(key)
		back, ok := KeyForChar(r)
		assert.True(t, ok)
		assert.Equal(t, key, back)
		seen[key] = true
	}
	assert.Len(t, seen, NumKeys)
}
