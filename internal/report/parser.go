// Package report extracts a numeric score and named feedback sections from
// the model's free-text ATS report. The upstream text is model-generated and
// not contractually structured, so everything here is heuristic: absence of a
// match is a normal outcome, never an error.
package report

import (
	"regexp"
	"strconv"
	"strings"
)

// SectionNotFound marks a section heading the model did not emit.
const SectionNotFound = "Not found"

// ScoreResult is the outcome of score extraction. Found is false when no
// well-formed score pattern exists; callers must treat that as absence, not
// as zero.
type ScoreResult struct {
	Value int
	Found bool
}

// Sections holds the three named feedback subsections of an ATS report.
// Missing sections carry the SectionNotFound sentinel.
type Sections struct {
	KeywordOptimization string
	JobRoleAlignment    string
	SkillsRelevance     string
}

// Report is the parsed form of one ATS report.
type Report struct {
	Score    ScoreResult
	Sections Sections
}

// A "Score" heading, optionally decorated with markdown hashes, numbering or
// bold markers, followed on the same or a subsequent line by an integer
// directly followed by %.
var scoreRe = regexp.MustCompile(`(?i)(?:^|\n)[#\s]*(?:\d+\.\s*)?\*{0,2}Score\b[*:\s]*(\d{1,3})\s*%`)

var sectionRes = map[string]*regexp.Regexp{
	"keyword": sectionRe(`Keyword Optimization`),
	"jobrole": sectionRe(`Job[-\s]?Role Alignment`),
	"skills":  sectionRe(`Skills and Experience Relevance`),
}

// sectionRe captures all text from a heading line up to the next heading or
// end of document. Headings tolerate markdown hashes and bold markers.
func sectionRe(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?sm)^\s*(?:#{1,6}\s*)?\*{0,2}` + name + `\*{0,2}\s*:?\*{0,2}\s*(.*?)\s*(?:\n\s*(?:#{1,6}\s|\*\*)|\z)`)
}

// Parse extracts the score and sections from an ATS report. Never fails on
// malformed input.
func Parse(text string) Report {
	return Report{
		Score:    ParseScore(text),
		Sections: ParseSections(text),
	}
}

// ParseScore searches for the score pattern and returns an explicit
// not-found result when no match exists or the value is out of the 0-100
// range.
func ParseScore(text string) ScoreResult {
	m := scoreRe.FindStringSubmatch(text)
	if m == nil {
		return ScoreResult{}
	}
	value, err := strconv.Atoi(m[1])
	if err != nil || value > 100 {
		return ScoreResult{}
	}
	return ScoreResult{Value: value, Found: true}
}

// ParseSections captures the three named subsections, resolving missing ones
// to SectionNotFound.
func ParseSections(text string) Sections {
	return Sections{
		KeywordOptimization: captureSection(sectionRes["keyword"], text),
		JobRoleAlignment:    captureSection(sectionRes["jobrole"], text),
		SkillsRelevance:     captureSection(sectionRes["skills"], text),
	}
}

func captureSection(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return SectionNotFound
	}
	captured := strings.TrimSpace(m[1])
	if captured == "" {
		return SectionNotFound
	}
	return captured
}
