package printer

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyValueCountsRunes(t *testing.T) {
	doc := NewDocument(20)
	doc.KeyValue("Gebühr", "1,00")
	out := doc.Bytes()
	line := out[2 : len(out)-1]
	assert.Equal(t, 20, len([]rune(string(line))))
}

func TestWrappedSplitsLongText(t *testing.T) {
	doc := NewDocument(4)
	doc.Wrapped("abcdefghij")
	assert.True(t, bytes.HasSuffix(doc.Bytes(), []byte("abcd\nefgh\nij\n")))
}

func TestBufferPrinterKeepsJobs(t *testing.T) {
	p, err := NewPrinterFromConfig("none", "", "")
	require.NoError(t, err)
	buf := p.(*BufferPrinter)

	require.NoError(t, p.Print(context.Background(), []byte("one")))
	require.NoError(t, p.Print(context.Background(), []byte("two")))
	jobs := buf.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "two", string(jobs[1]))

	_, err = NewPrinterFromConfig("serial", "", "")
	assert.Error(t, err)
	_, err = NewPrinterFromConfig("usb", "", "")
	assert.Error(t, err)
}
