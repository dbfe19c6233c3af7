// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Roverlab

package dxl

// Byte stuffing prevents parameter bytes from being misread as a new frame
// header. Whenever the sequence FF FF FD appears in the parameter region an
// extra FD is inserted after it, so a receiver scanning for headers never
// matches inside a payload. The on-wire length field counts the stuffed
// bytes.

// headerRunLen advances a match against the FF FF FD prefix. Overlap
// matters: after FF FF FF the last two bytes are still a valid prefix.
func headerRunLen(state int, b byte) int {
	switch {
	case state == 2 && b == 0xFD:
		return 3
	case b == 0xFF:
		if state >= 1 {
			return 2
		}
		return 1
	default:
		return 0
	}
}

// Stuff returns the parameters with byte stuffing applied. The input slice
// is not modified. If no stuffing is required the input is returned as-is.
func Stuff(params []byte) []byte {
	extra := stuffingRequired(params)
	if extra == 0 {
		return params
	}

	out := make([]byte, 0, len(params)+extra)
	state := 0
	for _, b := range params {
		out = append(out, b)
		state = headerRunLen(state, b)
		if state == 3 {
			out = append(out, 0xFD)
			state = 0
		}
	}
	return out
}

// Unstuff removes byte stuffing in place and returns the shortened slice.
// Every FF FF FD FD run collapses back to FF FF FD.
func Unstuff(data []byte) []byte {
	deleted := 0
	state := 0
	for i := 0; i < len(data); i++ {
		b := data[i]
		if state == 3 {
			if b == 0xFD {
				state = 0
				deleted++
				continue
			}
			state = headerRunLen(0, b)
		} else {
			state = headerRunLen(state, b)
		}
		if deleted > 0 {
			data[i-deleted] = data[i]
		}
	}
	return data[:len(data)-deleted]
}

// stuffingRequired counts how many stuffing bytes Stuff would insert.
func stuffingRequired(params []byte) int {
	state := 0
	count := 0
	for _, b := range params {
		state = headerRunLen(state, b)
		if state == 3 {
			state = 0
			count++
		}
	}
	return count
}
