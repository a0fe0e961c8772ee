// Package structural implements Stage 2 validation: document-level sanity
// checks over an already-parsed sample.
//
// The checks are deliberately independent of the grammar. A grammar edit
// permissive enough to parse a malformed script still fails here, which is
// what catches productions that silently swallow the remainder of the
// input on ambiguous boundaries.
package structural

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pithecene-io/chisel/parse"
	"github.com/pithecene-io/chisel/types"
)

// sectionNames are the RealTest section headers the checks recognize.
var sectionNames = []string{
	"Notes", "Parameters", "Import", "Strategy", "Data", "Template",
	"Settings", "Charts", "Include", "Library", "Scan", "TestData",
	"Combined", "Benchmark", "OptimizeSettings", "OrderSettings",
	"ScanSettings", "TestSettings", "WalkForward", "StatsGroup",
	"StratData", "Namespace",
}

var sectionPattern = regexp.MustCompile(
	`^(` + strings.Join(sectionNames, "|") + `)\s*:`)

// SectionRef is one section header occurrence.
type SectionRef struct {
	// Name is the section name, e.g. "Strategy".
	Name string
	// Line is the 1-based source line of the header.
	Line int
}

// Checker is one structural check. Check returns nil on pass, or a
// structural diagnostic naming the first violated invariant.
type Checker interface {
	// Name identifies the check in diagnostics and logs.
	Name() string
	// Check inspects the raw sample content alongside its parse result.
	Check(id types.SampleID, content []byte, res *parse.Result) *types.Diagnostic
}

// Suite runs a fixed checker sequence and reports the first failure.
type Suite struct {
	checkers []Checker
}

// NewSuite builds a suite from the given checkers.
func NewSuite(checkers ...Checker) *Suite {
	return &Suite{checkers: checkers}
}

// DefaultSuite returns the shipped Stage 2 checks.
func DefaultSuite() *Suite {
	return NewSuite(SectionParity{}, NotesContainment{})
}

// Check runs the suite in order; the first failing check's diagnostic wins.
func (s *Suite) Check(id types.SampleID, content []byte, res *parse.Result) *types.Diagnostic {
	for _, c := range s.checkers {
		if d := c.Check(id, content, res); d != nil {
			return d
		}
	}
	return nil
}

// TextSections extracts section headers from raw sample text, line by line.
func TextSections(content []byte) []SectionRef {
	var refs []SectionRef
	for i, line := range strings.Split(string(content), "\n") {
		m := sectionPattern.FindStringSubmatch(strings.TrimSpace(line))
		if m != nil {
			refs = append(refs, SectionRef{Name: m[1], Line: i + 1})
		}
	}
	return refs
}

// TreeSections extracts section headers recovered by the parser, by
// matching each top-level statement's text against the header pattern.
func TreeSections(res *parse.Result) []SectionRef {
	var refs []SectionRef
	for _, st := range res.Statements {
		m := sectionPattern.FindStringSubmatch(strings.TrimSpace(st.Text))
		if m != nil {
			refs = append(refs, SectionRef{Name: m[1], Line: st.Line})
		}
	}
	return refs
}

func countByName(refs []SectionRef) map[string]int {
	counts := map[string]int{}
	for _, r := range refs {
		counts[r.Name]++
	}
	return counts
}

// SectionParity verifies that every section header present in the text is
// also present in the parse tree, with matching occurrence counts. A
// mismatch means some production consumed a following section's header.
type SectionParity struct{}

// Name implements Checker.
func (SectionParity) Name() string { return "section_parity" }

// Check implements Checker.
func (SectionParity) Check(id types.SampleID, content []byte, res *parse.Result) *types.Diagnostic {
	text := TextSections(content)
	tre := TreeSections(res)

	textCounts := countByName(text)
	treeCounts := countByName(tre)

	for _, ref := range text {
		if treeCounts[ref.Name] < textCounts[ref.Name] {
			return &types.Diagnostic{
				SampleID:   id,
				Kind:       types.KindStructural,
				Line:       ref.Line,
				Unexpected: ref.Name,
				Message: fmt.Sprintf(
					"section %s appears %d time(s) in text but %d time(s) in parse tree",
					ref.Name, textCounts[ref.Name], treeCounts[ref.Name]),
			}
		}
	}
	for name, n := range treeCounts {
		if n > textCounts[name] {
			return &types.Diagnostic{
				SampleID:   id,
				Kind:       types.KindStructural,
				Unexpected: name,
				Message: fmt.Sprintf(
					"section %s appears %d time(s) in parse tree but %d time(s) in text",
					name, n, textCounts[name]),
			}
		}
	}
	return nil
}

// NotesContainment verifies that a Notes section does not consume the
// sections that follow it. This is the over-consumption failure observed
// in the reference corpus: a greedy Notes production swallowing the rest
// of the script.
type NotesContainment struct{}

// Name implements Checker.
func (NotesContainment) Name() string { return "notes_containment" }

// Check implements Checker.
func (NotesContainment) Check(id types.SampleID, content []byte, res *parse.Result) *types.Diagnostic {
	text := TextSections(content)
	notesLine := 0
	for _, ref := range text {
		if ref.Name == "Notes" {
			notesLine = ref.Line
			break
		}
	}
	if notesLine == 0 {
		return nil
	}

	treeCounts := countByName(TreeSections(res))
	var missing []string
	for _, ref := range text {
		if ref.Line <= notesLine {
			continue
		}
		if treeCounts[ref.Name] == 0 {
			missing = append(missing, fmt.Sprintf("%s (line %d)", ref.Name, ref.Line))
		} else {
			treeCounts[ref.Name]--
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &types.Diagnostic{
		SampleID:   id,
		Kind:       types.KindStructural,
		Line:       notesLine,
		Unexpected: "Notes",
		Message: fmt.Sprintf(
			"Notes section consumed following section(s): %s",
			strings.Join(missing, ", ")),
	}
}
