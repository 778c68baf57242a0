package gitcli_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/strata/pkg/gitcli"
)

func changesFor(t *testing.T, diffTreeOutput string) ([]gitcli.Change, error) {
	t.Helper()

	runner := &fakeRunner{outputs: map[string][]byte{
		"diff-tree": []byte(diffTreeOutput),
	}}
	client := newTestClient(runner)

	changes, err := client.ChangesBetween(context.Background(), "aaa", "bbb")

	assert.Equal(t,
		[]string{"diff-tree", "-r", "-z", "-M", "--name-status", "aaa", "bbb"},
		runner.lastCall())

	return changes, err
}

func TestChangesBetween(t *testing.T) {
	t.Parallel()

	out := "M\x00src/main.cs\x00" +
		"A\x00src/new.cs\x00" +
		"D\x00src/old.cs\x00" +
		"T\x00src/link.cs\x00" +
		"R086\x00src/before.cs\x00src/after.cs\x00" +
		"C075\x00lib/base.cs\x00lib/copy.cs\x00"

	changes, err := changesFor(t, out)
	require.NoError(t, err)

	want := []gitcli.Change{
		{Kind: gitcli.Modify, Path: "src/main.cs"},
		{Kind: gitcli.Add, Path: "src/new.cs"},
		{Kind: gitcli.Delete, Path: "src/old.cs"},
		{Kind: gitcli.Modify, Path: "src/link.cs"},
		{Kind: gitcli.Rename, Path: "src/after.cs", OldPath: "src/before.cs"},
		{Kind: gitcli.Add, Path: "lib/copy.cs"},
	}
	assert.Equal(t, want, changes)
}

func TestChangesBetween_Empty(t *testing.T) {
	t.Parallel()

	changes, err := changesFor(t, "")
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestChangesBetween_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		output string
	}{
		{"unknown_status", "X\x00weird.cs\x00"},
		{"status_without_path", "M\x00"},
		{"rename_missing_path", "R100\x00only-old.cs\x00"},
		{"copy_missing_path", "C050\x00only-src.cs\x00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := changesFor(t, tt.output)
			require.ErrorIs(t, err, gitcli.ErrMalformedOutput)
		})
	}
}

func TestChangesBetween_SubDir(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{outputs: map[string][]byte{
		"diff-tree": []byte("M\x00src/main.cs\x00"),
	}}
	client := newTestClient(runner)
	client.SubDir = "src"

	_, err := client.ChangesBetween(context.Background(), "aaa", "bbb")
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"diff-tree", "-r", "-z", "-M", "--name-status", "aaa", "bbb", "--", "src"},
		runner.lastCall())
}

func TestChangeKind_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "add", gitcli.Add.String())
	assert.Equal(t, "modify", gitcli.Modify.String())
	assert.Equal(t, "delete", gitcli.Delete.String())
	assert.Equal(t, "rename", gitcli.Rename.String())
	assert.Equal(t, "ChangeKind(42)", gitcli.ChangeKind(42).String())
}
