package analyze

import (
	"github.com/Sumatoshi-tech/strata/pkg/linetype"
	"github.com/Sumatoshi-tech/strata/pkg/textutil"
)

// Analyzer classifies file content into line groups. Safe for concurrent
// use from any number of goroutines.
type Analyzer struct {
	classifier *linetype.Classifier
}

// NewAnalyzer returns an analyzer using the given classifier. A nil
// classifier selects the default keyword set.
func NewAnalyzer(classifier *linetype.Classifier) *Analyzer {
	if classifier == nil {
		classifier = linetype.NewClassifier()
	}

	return &Analyzer{classifier: classifier}
}

// File analyzes content under the given logical path. Content is split on
// line terminators (CRLF normalized) and each line classified; adjacent
// lines of the same type collapse into one group. Empty content yields an
// analysis with no groups.
func (a *Analyzer) File(path string, content []byte) FileAnalysis {
	return FileAnalysis{
		Path:   path,
		Groups: a.groupLines(textutil.SplitLines(content)),
	}
}

// groupLines run-length-encodes classified lines in a single pass.
func (a *Analyzer) groupLines(lines []string) []LineGroup {
	if len(lines) == 0 {
		return nil
	}

	var groups []LineGroup

	current := LineGroup{Start: 1, Length: 1, Type: a.classifier.Classify(lines[0])}

	for i := 1; i < len(lines); i++ {
		t := a.classifier.Classify(lines[i])
		if t == current.Type {
			current.Length++

			continue
		}

		groups = append(groups, current)
		current = LineGroup{Start: i + 1, Length: 1, Type: t}
	}

	return append(groups, current)
}
