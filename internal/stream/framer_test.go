package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFramerCompleteLines(t *testing.T) {
	var f Framer

	lines := f.Push([]byte("one\ntwo\n"))
	assert.Equal(t, [][]byte{[]byte("one"), []byte("two")}, lines)
	assert.Nil(t, f.Flush())
}

func TestFramerCarriesPartialLineAcrossPushes(t *testing.T) {
	var f Framer

	lines := f.Push([]byte("data: {\"ty"))
	assert.Empty(t, lines)

	lines = f.Push([]byte("pe\":\"text\"}\n"))
	assert.Equal(t, [][]byte{[]byte(`data: {"type":"text"}`)}, lines)
}

func TestFramerSplitAtEveryPosition(t *testing.T) {
	input := "first line\nsecond line\nthird\n"
	want := [][]byte{[]byte("first line"), []byte("second line"), []byte("third")}

	for i := 0; i <= len(input); i++ {
		var f Framer
		var got [][]byte
		got = append(got, f.Push([]byte(input[:i]))...)
		got = append(got, f.Push([]byte(input[i:]))...)
		assert.Equal(t, want, got, "split at %d", i)
	}
}

func TestFramerStripsCarriageReturn(t *testing.T) {
	var f Framer

	lines := f.Push([]byte("data: {}\r\n"))
	assert.Equal(t, [][]byte{[]byte("data: {}")}, lines)
}

func TestFramerFlushReturnsTail(t *testing.T) {
	var f Framer

	f.Push([]byte("complete\npartial"))
	assert.Equal(t, []byte("partial"), f.Flush())
	assert.Nil(t, f.Flush())
}
