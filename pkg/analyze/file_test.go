package analyze_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/strata/pkg/analyze"
	"github.com/Sumatoshi-tech/strata/pkg/linetype"
)

func TestFile_Empty(t *testing.T) {
	t.Parallel()

	fa := analyze.NewAnalyzer(nil).File("a.cs", nil)

	assert.Equal(t, "a.cs", fa.Path)
	assert.True(t, fa.IsEmpty())
	assert.Equal(t, 0, fa.TotalLines())
}

func TestFile_SingleLine(t *testing.T) {
	t.Parallel()

	fa := analyze.NewAnalyzer(nil).File("a.cs", []byte("var x = 1;"))

	require.Len(t, fa.Groups, 1)
	assert.Equal(t, analyze.LineGroup{Start: 1, Length: 1, Type: linetype.Code}, fa.Groups[0])
}

func TestFile_GroupsRuns(t *testing.T) {
	t.Parallel()

	content := []byte(
		"// header\n" +
			"// more header\n" +
			"var x = 1;\n" +
			"var y = 2;\n" +
			"\n" +
			"if (x > y)\n" +
			"    return x; // larger\n",
	)

	fa := analyze.NewAnalyzer(nil).File("a.cs", content)

	want := []analyze.LineGroup{
		{Start: 1, Length: 2, Type: linetype.Comment},
		{Start: 3, Length: 2, Type: linetype.Code},
		{Start: 5, Length: 1, Type: linetype.Empty},
		{Start: 6, Length: 2, Type: linetype.ComplexityIncreasing},
	}

	assert.Equal(t, want, fa.Groups)
	assert.Equal(t, 7, fa.TotalLines())
}

func TestFile_CRLFMatchesLF(t *testing.T) {
	t.Parallel()

	a := analyze.NewAnalyzer(nil)

	lf := a.File("a.cs", []byte("// c\ncode();\n"))
	crlf := a.File("a.cs", []byte("// c\r\ncode();\r\n"))

	assert.Equal(t, lf.Groups, crlf.Groups)
}

func TestFile_TrailingNewlineDoesNotAddLine(t *testing.T) {
	t.Parallel()

	a := analyze.NewAnalyzer(nil)

	with := a.File("a.cs", []byte("x();\n"))
	without := a.File("a.cs", []byte("x();"))

	assert.Equal(t, with.Groups, without.Groups)
}

func TestFile_GroupInvariants(t *testing.T) {
	t.Parallel()

	content := []byte(
		"// a\nx();\ny();\n\n\nif (q)\n// b\n// c\nz(); // d\n",
	)

	fa := analyze.NewAnalyzer(nil).File("a.cs", content)
	require.NotEmpty(t, fa.Groups)

	// Groups are contiguous, start at line 1, and no two neighbors share
	// a type.
	assert.Equal(t, 1, fa.Groups[0].Start)

	for i := 1; i < len(fa.Groups); i++ {
		prev, cur := fa.Groups[i-1], fa.Groups[i]

		assert.Equal(t, prev.Start+prev.Length, cur.Start)
		assert.NotEqual(t, prev.Type, cur.Type)
		assert.GreaterOrEqual(t, cur.Length, 1)
	}

	assert.Equal(t, 9, fa.TotalLines())
}

func TestFile_CustomClassifier(t *testing.T) {
	t.Parallel()

	a := analyze.NewAnalyzer(linetype.NewClassifier("when"))

	fa := a.File("a.x", []byte("when (ready)\nif (x)\n"))

	want := []analyze.LineGroup{
		{Start: 1, Length: 1, Type: linetype.ComplexityIncreasing},
		{Start: 2, Length: 1, Type: linetype.Code},
	}

	assert.Equal(t, want, fa.Groups)
}

func TestSortByPath_CaseInsensitive(t *testing.T) {
	t.Parallel()

	files := []analyze.FileAnalysis{
		{Path: "src/Zeta.cs"},
		{Path: "src/alpha.cs"},
		{Path: "README.cs"},
	}

	analyze.SortByPath(files)

	assert.Equal(t, "README.cs", files[0].Path)
	assert.Equal(t, "src/alpha.cs", files[1].Path)
	assert.Equal(t, "src/Zeta.cs", files[2].Path)
}

func TestPathLess_TieBreak(t *testing.T) {
	t.Parallel()

	// Equal under case folding: the bytewise comparison decides.
	assert.True(t, analyze.PathLess("A.cs", "a.cs"))
	assert.False(t, analyze.PathLess("a.cs", "A.cs"))
	assert.False(t, analyze.PathLess("a.cs", "a.cs"))
}
