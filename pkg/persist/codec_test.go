package persist

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/strata/pkg/analyze"
	"github.com/Sumatoshi-tech/strata/pkg/blockdiff"
	"github.com/Sumatoshi-tech/strata/pkg/history"
	"github.com/Sumatoshi-tech/strata/pkg/linetype"
)

// sampleLog exercises every record shape: snapshot, all three edit
// kinds, rename provenance, optional stats, and a delete.
func sampleLog() history.Log {
	return history.Log{
		{
			Commit: "4dc2f30a7d3c11b9f1d3a6a16102ae98cb3f7e51",
			Analysis: []analyze.FileAnalysis{{
				Path: "src/app.cs",
				Groups: []analyze.LineGroup{
					{Start: 1, Length: 2, Type: linetype.Comment},
					{Start: 3, Length: 5, Type: linetype.Code},
				},
			}},
		},
		{
			Commit: "9f8c1de2b5a340cf8c119a5a308c25f2f84d9f3c",
			Changes: []history.ChangeRecord{
				{
					Path: "src/app.cs",
					Change: blockdiff.FileChange{
						Kind: blockdiff.Modify,
						Edits: []blockdiff.Edit{
							blockdiff.Remove{Index: 0, Type: linetype.Comment, OldLength: 2},
							blockdiff.Insert{Index: 1, Type: linetype.Empty, NewLength: 1},
							blockdiff.Resize{Index: 0, Type: linetype.Code, OldLength: 5, NewLength: 7},
						},
					},
					Stats: &history.LineStats{Added: 3, Removed: 2, Changed: 1},
				},
				{
					Path:    "src/renamed.cs",
					OldPath: "src/orig.cs",
					Change: blockdiff.FileChange{
						Kind:   blockdiff.FileAdd,
						Groups: []analyze.LineGroup{{Start: 1, Length: 4, Type: linetype.Code}},
					},
				},
				{
					Path:   "src/gone.cs",
					Change: blockdiff.FileChange{Kind: blockdiff.FileDelete},
				},
			},
		},
	}
}

func TestCodecs_RoundTrip(t *testing.T) {
	t.Parallel()

	codecs := map[string]Codec{
		"json": NewJSONCodec(),
		"gob":  NewGobCodec(),
		"lz4":  NewLZ4Codec(),
	}

	for name, codec := range codecs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			original := sampleLog()

			var buf bytes.Buffer

			require.NoError(t, codec.Encode(&buf, original))

			decoded, err := codec.Decode(&buf)
			require.NoError(t, err)
			assert.Equal(t, original, decoded)
		})
	}
}

func TestJSONCodec_PrettyPrint(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, NewJSONCodec().Encode(&buf, sampleLog()))

	output := buf.String()
	assert.Contains(t, output, defaultIndent)
	assert.Contains(t, output, `"version": 1`)
	assert.Contains(t, output, `"kind": "delete"`)
	assert.Contains(t, output, `"old_path": "src/orig.cs"`)
}

func TestJSONCodec_CompactNoIndent(t *testing.T) {
	t.Parallel()

	codec := &JSONCodec{Indent: ""}

	var buf bytes.Buffer

	require.NoError(t, codec.Encode(&buf, sampleLog()))

	// Compact JSON has at most one trailing newline (from json.Encoder).
	assert.LessOrEqual(t, strings.Count(buf.String(), "\n"), 1)
}

func TestJSONCodec_DecodeError(t *testing.T) {
	t.Parallel()

	_, err := NewJSONCodec().Decode(strings.NewReader("not valid json{{{"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "json decode")
}

func TestGobCodec_DecodeError(t *testing.T) {
	t.Parallel()

	_, err := NewGobCodec().Decode(strings.NewReader("not gob data"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "gob decode")
}

func TestLZ4Codec_DecodeError(t *testing.T) {
	t.Parallel()

	_, err := NewLZ4Codec().Decode(strings.NewReader("not an lz4 frame"))

	assert.Error(t, err)
}

func TestLZ4Codec_Compresses(t *testing.T) {
	t.Parallel()

	// A log with many repetitive groups compresses well below the gob size.
	log := history.Log{{Commit: strings.Repeat("a", 40)}}

	groups := make([]analyze.LineGroup, 0, 200)
	for i := range 200 {
		groups = append(groups, analyze.LineGroup{Start: i*3 + 1, Length: 3, Type: linetype.Code})
	}

	log[0].Analysis = []analyze.FileAnalysis{{Path: "big.cs", Groups: groups}}

	var plain, packed bytes.Buffer

	require.NoError(t, NewGobCodec().Encode(&plain, log))
	require.NoError(t, NewLZ4Codec().Encode(&packed, log))

	assert.Less(t, packed.Len(), plain.Len())
}

func TestForPath(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		path string
		want string
	}{
		{"json", "out/log.json", ".json"},
		{"gob", "log.gob", ".gob"},
		{"lz4", "log.gob.lz4", ".lz4"},
		{"uppercase", "LOG.JSON", ".json"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			codec, err := ForPath(tc.path)
			require.NoError(t, err)
			assert.Equal(t, tc.want, codec.Extension())
		})
	}
}

func TestForPath_UnknownExtension(t *testing.T) {
	t.Parallel()

	for _, path := range []string{"log.txt", "log", "log.json.bak"} {
		_, err := ForPath(path)
		assert.ErrorIs(t, err, ErrUnknownFormat, "path %q", path)
	}
}
