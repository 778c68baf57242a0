package persist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromWire_UnsupportedVersion(t *testing.T) {
	t.Parallel()

	_, err := fromWire(wireLog{Version: 99})

	require.ErrorIs(t, err, ErrMalformedLog)
	assert.Contains(t, err.Error(), "version 99")
}

func TestFromWire_Malformed(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		doc  wireLog
	}{
		{
			name: "unknown change kind",
			doc: wireLog{Version: wireVersion, Revisions: []wireRevision{{
				Commit:  "c2",
				Changes: []wireChange{{Path: "a.cs", Kind: "replace"}},
			}}},
		},
		{
			name: "unknown edit op",
			doc: wireLog{Version: wireVersion, Revisions: []wireRevision{{
				Commit: "c2",
				Changes: []wireChange{{
					Path:  "a.cs",
					Kind:  "modify",
					Edits: []wireEdit{{Op: "swap", Index: 0, Type: "code"}},
				}},
			}}},
		},
		{
			name: "unknown line type in edit",
			doc: wireLog{Version: wireVersion, Revisions: []wireRevision{{
				Commit: "c2",
				Changes: []wireChange{{
					Path:  "a.cs",
					Kind:  "modify",
					Edits: []wireEdit{{Op: opInsert, Index: 0, Type: "banana", NewLength: 1}},
				}},
			}}},
		},
		{
			name: "unknown line type in snapshot",
			doc: wireLog{Version: wireVersion, Revisions: []wireRevision{{
				Commit: "c1",
				Analysis: []wireFile{{
					Path:   "a.cs",
					Groups: []wireGroup{{Start: 1, Length: 1, Type: "mystery"}},
				}},
			}}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := fromWire(tc.doc)
			assert.ErrorIs(t, err, ErrMalformedLog)
		})
	}
}

func TestToWire_EmptyLog(t *testing.T) {
	t.Parallel()

	doc := toWire(nil)

	assert.Equal(t, wireVersion, doc.Version)
	assert.Empty(t, doc.Revisions)

	log, err := fromWire(doc)
	require.NoError(t, err)
	assert.Empty(t, log)
}
