package analyze

import (
	"log/slog"
	"path"
	"regexp"
	"strings"

	"github.com/src-d/enry/v2"

	"github.com/Sumatoshi-tech/strata/pkg/textutil"
)

// allLanguages disables the language filter when present in the allow-list.
const allLanguages = "all"

// DefaultExtensions returns the extension globs applied when none are
// configured.
func DefaultExtensions() []string {
	return []string{"*.cs"}
}

// FilterOptions configures a [Filter]. Zero-value fields select the
// defaults: extension globs from [DefaultExtensions], no ignore patterns,
// all languages, vendored paths kept.
type FilterOptions struct {
	// Extensions are glob patterns a file must match. Patterns without a
	// slash match the base name, patterns with a slash match the whole
	// relative path.
	Extensions []string
	// Ignore are regular expressions excluding any matching relative path.
	Ignore []string
	// Languages restricts files to the named languages as detected by
	// enry. Empty, or containing "all", lets every language through.
	Languages []string
	// SkipVendored excludes paths enry recognizes as vendored.
	SkipVendored bool
	// MaxFileBytes rejects content larger than this many bytes in
	// MatchContent. Zero means no cap.
	MaxFileBytes int64
}

// Filter decides which files take part in an analysis. Construct with
// [NewFilter]; safe for concurrent use.
type Filter struct {
	globs        []string
	ignore       []*regexp.Regexp
	languages    map[string]bool
	skipVendored bool
	maxBytes     int64
}

// NewFilter compiles the options into a filter. A malformed glob or
// regular expression is logged and skipped, never fatal. A nil logger
// falls back to [slog.Default].
func NewFilter(opts FilterOptions, logger *slog.Logger) *Filter {
	if logger == nil {
		logger = slog.Default()
	}

	f := &Filter{skipVendored: opts.SkipVendored, maxBytes: opts.MaxFileBytes}

	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions()
	}

	for _, glob := range exts {
		if _, err := path.Match(glob, "probe"); err != nil {
			logger.Warn("skipping malformed extension glob", "pattern", glob, "err", err)

			continue
		}

		f.globs = append(f.globs, glob)
	}

	for _, expr := range opts.Ignore {
		re, err := regexp.Compile(expr)
		if err != nil {
			logger.Warn("skipping malformed ignore pattern", "pattern", expr, "err", err)

			continue
		}

		f.ignore = append(f.ignore, re)
	}

	for _, lang := range opts.Languages {
		normalized := strings.ToLower(strings.TrimSpace(lang))
		if normalized == allLanguages {
			f.languages = nil

			break
		}

		if f.languages == nil {
			f.languages = make(map[string]bool, len(opts.Languages))
		}

		f.languages[normalized] = true
	}

	return f
}

// Match reports whether a slash-separated relative path survives the
// path-level filters: extension globs, ignore patterns, and the vendored
// check. Content-level filters are applied separately by [Filter.MatchContent].
func (f *Filter) Match(relPath string) bool {
	if !f.matchGlob(relPath) {
		return false
	}

	for _, re := range f.ignore {
		if re.MatchString(relPath) {
			return false
		}
	}

	if f.skipVendored && enry.IsVendor(relPath) {
		return false
	}

	return true
}

func (f *Filter) matchGlob(relPath string) bool {
	base := path.Base(relPath)

	for _, glob := range f.globs {
		target := base
		if strings.ContainsRune(glob, '/') {
			target = relPath
		}

		// Pattern validity was checked at construction.
		if ok, _ := path.Match(glob, target); ok {
			return true
		}
	}

	return false
}

// MatchContent reports whether file content passes the content-level
// filters. Oversized content (when a cap is set) and binary data never
// pass. With a language allow-list set, the language detected from name
// and content must be on the list.
func (f *Filter) MatchContent(relPath string, content []byte) bool {
	if f.maxBytes > 0 && int64(len(content)) > f.maxBytes {
		return false
	}

	if textutil.IsBinary(content) {
		return false
	}

	if f.languages == nil {
		return true
	}

	lang := enry.GetLanguage(path.Base(relPath), content)
	if lang == "" {
		return false
	}

	return f.languages[strings.ToLower(lang)]
}
