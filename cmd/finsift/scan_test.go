package main

import (
	"os"
	"path/filepath"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMessagesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "messages.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadMessages(t *testing.T) {
	path := writeMessagesFile(t, `[
		{"body": "Rs 450 debited at SWIGGY", "sender": "VM-HDFCBK", "device_timestamp": 1725955200000},
		{"body": "Rs 120 debited at UBER", "sender": "VM-ICICIB"}
	]`)

	msgs, err := loadMessages(path)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, "VM-HDFCBK", msgs[0].Sender)
	assert.Equal(t, int64(1725955200000), msgs[0].DeviceTimestamp)

	// A missing timestamp is filled with the current time.
	assert.NotZero(t, msgs[1].DeviceTimestamp)
}

func TestLoadMessages_Invalid(t *testing.T) {
	_, err := loadMessages(writeMessagesFile(t, `[]`))
	assert.ErrorContains(t, err, "empty")

	_, err = loadMessages(writeMessagesFile(t, `{not json`))
	assert.ErrorContains(t, err, "parse")

	_, err = loadMessages(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "read")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "exactlyten", truncate("exactlyten", 10))
	assert.Equal(t, "a long me…", truncate("a long message body", 10))

	// Multi-byte runes at the boundary must not be split.
	got := truncate("₹450 paid to Café Müller for dinner", 16)
	assert.Equal(t, "₹450 paid to Ca…", got)
	assert.True(t, utf8.ValidString(got))
}
