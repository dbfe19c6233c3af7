// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Roverlab

package cmd

import (
	"testing"
	"time"
)

// feedbackSample builds a 21-byte feedback block with the given present
// position encoded little-endian at its offset.
func feedbackSample(position uint32) []byte {
	data := make([]byte, 21)
	data[6] = byte(position)
	data[7] = byte(position >> 8)
	data[8] = byte(position >> 16)
	data[9] = byte(position >> 24)
	return data
}

func TestWatchModelAppliesSamples(t *testing.T) {
	m := newWatchModel(nil, "test", []byte{1, 2}, time.Millisecond)

	updated, _ := m.Update(watchSampleMsg{
		samples: map[byte][]byte{1: feedbackSample(2048)},
		alerts:  map[byte]bool{1: true},
	})
	wm := updated.(watchModel)

	state := wm.motors[1]
	if !state.seen {
		t.Fatal("motor 1 not marked seen")
	}
	if state.position != 2048 {
		t.Errorf("position = %d, want 2048", state.position)
	}
	if !state.alert {
		t.Error("alert flag not carried from the reply")
	}
	if wm.motors[2].seen {
		t.Error("motor 2 marked seen without a sample")
	}
}

func TestWatchModelClearsAlert(t *testing.T) {
	m := newWatchModel(nil, "test", []byte{1}, time.Millisecond)

	updated, _ := m.Update(watchSampleMsg{
		samples: map[byte][]byte{1: feedbackSample(100)},
		alerts:  map[byte]bool{1: true},
	})
	updated, _ = updated.(watchModel).Update(watchSampleMsg{
		samples: map[byte][]byte{1: feedbackSample(100)},
		alerts:  map[byte]bool{1: false},
	})
	wm := updated.(watchModel)

	if wm.motors[1].alert {
		t.Error("alert flag not cleared once the motor reports healthy")
	}
}
