// Package stream consumes the chat response stream: it reassembles
// newline-delimited `data: <json>` records from arbitrarily chunked reads,
// dispatches them into a Turn, and drives incremental rendering.
package stream

import (
	"bytes"
)

// Framer reassembles newline-terminated lines from a chunked byte stream.
// Chunk boundaries carry no meaning: a chunk may end mid-record, so any
// trailing partial line is held in the carry buffer until the next push.
type Framer struct {
	carry []byte
}

// Push appends a chunk and returns every complete line it closes, in order.
// Line terminators are stripped.
func (f *Framer) Push(chunk []byte) [][]byte {
	f.carry = append(f.carry, chunk...)

	var lines [][]byte
	for {
		i := bytes.IndexByte(f.carry, '\n')
		if i < 0 {
			break
		}
		line := f.carry[:i]
		line = bytes.TrimSuffix(line, []byte("\r"))
		lines = append(lines, append([]byte(nil), line...))
		f.carry = f.carry[i+1:]
	}
	return lines
}

// Flush returns whatever is left in the carry buffer. Called at end of
// stream, where a final record may lack its terminator.
func (f *Framer) Flush() []byte {
	if len(f.carry) == 0 {
		return nil
	}
	line := bytes.TrimSuffix(f.carry, []byte("\r"))
	f.carry = nil
	return line
}
