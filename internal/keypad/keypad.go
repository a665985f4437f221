// Package keypad holds the 16-key CHIP-8 input latch.
//
// The latch is the only piece of machine state written from outside the
// emulation goroutine, so every access goes through a mutex. Every effective
// change bumps a sequence number and is remembered, which is what the key-wait
// instruction watches: it resolves on the first change after it started,
// even when a press and its release both land between two polls.
package keypad

import "sync"

const (
	NumKeys = 16
	// Player is the only logical player index the latch listens to.
	Player = 0

	historySize = 64 // power of two
)

// State is one copy of all key states.
type State [NumKeys]bool

// Keypad is safe for concurrent use.
type Keypad struct {
	mu   sync.Mutex
	keys State
	seq  uint64
	// history[n%historySize] is the key that caused change number n
	history [historySize]byte
}

func New() *Keypad {
	return &Keypad{}
}

// Press marks key as held. Events for other players or keys above 0xF are ignored.
func (k *Keypad) Press(player, key uint) { k.set(player, key, true) }

// Release marks key as up.
func (k *Keypad) Release(player, key uint) { k.set(player, key, false) }

func (k *Keypad) set(player, key uint, down bool) {
	if player != Player || key >= NumKeys {
		return
	}
	k.mu.Lock()
	if k.keys[key] == down {
		k.mu.Unlock()
		return
	}
	k.keys[key] = down
	k.seq++
	k.history[k.seq%historySize] = byte(key)
	k.mu.Unlock()
}

// Pressed reports the state of key (masked to 4 bits).
func (k *Keypad) Pressed(key byte) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.keys[key&0xF]
}

func (k *Keypad) Snapshot() State {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.keys
}

// Restore replaces all key states without signalling a change.
func (k *Keypad) Restore(s State) {
	k.mu.Lock()
	k.keys = s
	k.mu.Unlock()
}

// Reset releases every key.
func (k *Keypad) Reset() { k.Restore(State{}) }

// Seq counts effective state changes since creation.
func (k *Keypad) Seq() uint64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.seq
}

// ChangeSince returns the key of the first change after the latch was at seq.
// A press and release landing between two polls still count. When more than
// the kept history happened since seq, the oldest remembered change is returned.
func (k *Keypad) ChangeSince(seq uint64) (byte, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.seq == seq {
		return 0, false
	}
	first := seq + 1
	if k.seq-seq > historySize {
		first = k.seq - historySize + 1
	}
	return k.history[first%historySize], true
}
