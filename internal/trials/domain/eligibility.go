package domain

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Range bounds a numeric value. A nil side is open.
type Range struct {
	Min *float64 `yaml:"min" json:"min,omitempty"`
	Max *float64 `yaml:"max" json:"max,omitempty"`
}

func (r Range) contains(v float64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

func (r Range) String() string {
	switch {
	case r.Min != nil && r.Max != nil:
		return formatNumber(*r.Min) + "-" + formatNumber(*r.Max)
	case r.Min != nil:
		return formatNumber(*r.Min) + "+"
	case r.Max != nil:
		return "up to " + formatNumber(*r.Max)
	default:
		return "any"
	}
}

// BiomarkerRequirement is either an expected status ("positive") or a
// numeric range.
type BiomarkerRequirement struct {
	Status string `yaml:"status" json:"status,omitempty"`
	Range  `yaml:",inline"`
}

// InclusionCriteria must all hold for an applicant to qualify.
type InclusionCriteria struct {
	AgeRange      *Range                          `yaml:"ageRange" json:"ageRange,omitempty"`
	Diagnoses     []string                        `yaml:"diagnoses" json:"diagnoses,omitempty"`
	Biomarkers    map[string]BiomarkerRequirement `yaml:"biomarkers" json:"biomarkers,omitempty"`
	MaxECOG       *int                            `yaml:"maxEcog" json:"maxEcog,omitempty"`
	OrganFunction map[string]Range                `yaml:"organFunction" json:"organFunction,omitempty"`
}

func (c InclusionCriteria) empty() bool {
	return c.AgeRange == nil && len(c.Diagnoses) == 0 && len(c.Biomarkers) == 0 &&
		c.MaxECOG == nil && len(c.OrganFunction) == 0
}

// ExclusionCriteria disqualify an applicant when any of them holds.
type ExclusionCriteria struct {
	Pregnancy       bool     `yaml:"pregnancy" json:"pregnancy,omitempty"`
	PriorTreatments []string `yaml:"priorTreatments" json:"priorTreatments,omitempty"`
	Conditions      []string `yaml:"conditions" json:"conditions,omitempty"`
}

func (c ExclusionCriteria) empty() bool {
	return !c.Pregnancy && len(c.PriorTreatments) == 0 && len(c.Conditions) == 0
}

// Criteria is the structured, machine-checkable part of a trial's
// eligibility rules.
type Criteria struct {
	Inclusion InclusionCriteria `yaml:"inclusion" json:"inclusion"`
	Exclusion ExclusionCriteria `yaml:"exclusion" json:"exclusion"`
}

func (c Criteria) clone() Criteria {
	out := c
	if c.Inclusion.AgeRange != nil {
		r := *c.Inclusion.AgeRange
		out.Inclusion.AgeRange = &r
	}
	if c.Inclusion.MaxECOG != nil {
		v := *c.Inclusion.MaxECOG
		out.Inclusion.MaxECOG = &v
	}
	out.Inclusion.Diagnoses = slices.Clone(c.Inclusion.Diagnoses)
	out.Inclusion.Biomarkers = maps.Clone(c.Inclusion.Biomarkers)
	out.Inclusion.OrganFunction = maps.Clone(c.Inclusion.OrganFunction)
	out.Exclusion.PriorTreatments = slices.Clone(c.Exclusion.PriorTreatments)
	out.Exclusion.Conditions = slices.Clone(c.Exclusion.Conditions)
	return out
}

// Profile is the applicant data the checker reads. Keys of Biomarkers and
// Labs are lower case.
type Profile struct {
	Age             *float64
	Diagnoses       []string
	Biomarkers      map[string]string
	ECOG            *int
	Labs            map[string]float64
	Pregnant        bool
	PriorTreatments []string
	Conditions      []string
}

// Evaluation is one line of the eligibility log.
type Evaluation struct {
	Type      string `json:"type"`
	Status    string `json:"status"`
	Criterion string `json:"criterion,omitempty"`
	Message   string `json:"message"`
}

// Eligibility is the outcome of checking a profile against a trial.
type Eligibility struct {
	Eligible     bool         `json:"eligible"`
	InclusionMet bool         `json:"inclusionCriteriaMet"`
	ExclusionMet bool         `json:"exclusionCriteriaMet"`
	Details      []Evaluation `json:"evaluationDetails"`
}

const (
	evalInclusion = "inclusion"
	evalExclusion = "exclusion"
	statusPassed  = "passed"
	statusFailed  = "failed"
)

// CheckEligibility evaluates every inclusion criterion and the exclusion
// criteria up to the first one that applies. The result is advisory: it
// never changes a trial's match score or its place in the catalog.
func CheckEligibility(p Profile, c Criteria) Eligibility {
	var log evaluationLog
	included := log.inclusion(p, c.Inclusion)
	notExcluded := log.exclusion(p, c.Exclusion)
	return Eligibility{
		Eligible:     included && notExcluded,
		InclusionMet: included,
		ExclusionMet: notExcluded,
		Details:      log.entries,
	}
}

type evaluationLog struct {
	entries []Evaluation
}

func (l *evaluationLog) add(kind string, passed bool, criterion, format string, args ...any) {
	status := statusFailed
	if passed {
		status = statusPassed
	}
	l.entries = append(l.entries, Evaluation{
		Type:      kind,
		Status:    status,
		Criterion: criterion,
		Message:   fmt.Sprintf(format, args...),
	})
}

func (l *evaluationLog) inclusion(p Profile, c InclusionCriteria) bool {
	if c.empty() {
		l.add(evalInclusion, true, "", "No inclusion criteria specified")
		return true
	}

	ok := true
	if c.AgeRange != nil {
		ok = l.age(p.Age, *c.AgeRange) && ok
	}
	if len(c.Diagnoses) > 0 {
		ok = l.diagnoses(p.Diagnoses, c.Diagnoses) && ok
	}
	if len(c.Biomarkers) > 0 {
		ok = l.biomarkers(p.Biomarkers, c.Biomarkers) && ok
	}
	if c.MaxECOG != nil {
		ok = l.performance(p.ECOG, *c.MaxECOG) && ok
	}
	if len(c.OrganFunction) > 0 {
		ok = l.organFunction(p.Labs, c.OrganFunction) && ok
	}
	return ok
}

func (l *evaluationLog) exclusion(p Profile, c ExclusionCriteria) bool {
	if c.empty() {
		l.add(evalExclusion, true, "", "No exclusion criteria specified")
		return true
	}

	if c.Pregnancy && p.Pregnant {
		l.add(evalExclusion, false, "pregnancy", "Applicant is pregnant (exclusion criterion)")
		return false
	}
	if term, hit := firstOverlap(p.PriorTreatments, c.PriorTreatments); hit {
		l.add(evalExclusion, false, "prior_treatments", "Applicant has excluded prior treatment: %s", term)
		return false
	}
	if term, hit := firstOverlap(p.Conditions, c.Conditions); hit {
		l.add(evalExclusion, false, "conditions", "Applicant has excluded condition: %s", term)
		return false
	}

	l.add(evalExclusion, true, "", "No exclusion criteria met")
	return true
}

func (l *evaluationLog) age(age *float64, r Range) bool {
	if age == nil {
		l.add(evalInclusion, false, "age", "Applicant age not provided")
		return false
	}
	passed := r.contains(*age)
	word := "outside"
	if passed {
		word = "within"
	}
	l.add(evalInclusion, passed, "age", "Age %s %s range %s", formatNumber(*age), word, r)
	return passed
}

func (l *evaluationLog) diagnoses(have, required []string) bool {
	_, passed := firstOverlap(have, required)
	word := "do not match"
	if passed {
		word = "match"
	}
	l.add(evalInclusion, passed, "diagnoses", "Applicant diagnoses %s required diagnoses", word)
	return passed
}

func (l *evaluationLog) biomarkers(have map[string]string, required map[string]BiomarkerRequirement) bool {
	ok := true
	for _, marker := range slices.Sorted(maps.Keys(required)) {
		req := required[marker]
		criterion := "biomarker_" + marker
		value, present := have[strings.ToLower(marker)]
		if !present {
			l.add(evalInclusion, false, criterion, "Biomarker %s not provided", marker)
			ok = false
			continue
		}

		var passed bool
		if req.Status != "" {
			passed = normalizeStatus(value) == normalizeStatus(req.Status)
		} else if n, err := strconv.ParseFloat(value, 64); err == nil {
			passed = req.Range.contains(n)
		}

		word := "does not meet"
		if passed {
			word = "meets"
		}
		l.add(evalInclusion, passed, criterion, "Biomarker %s: %s %s requirement", marker, value, word)
		ok = passed && ok
	}
	return ok
}

func (l *evaluationLog) performance(ecog *int, maxAllowed int) bool {
	if ecog == nil {
		l.add(evalInclusion, false, "performance_status", "Performance status not provided")
		return false
	}
	passed := *ecog <= maxAllowed
	op := ">"
	if passed {
		op = "≤"
	}
	l.add(evalInclusion, passed, "performance_status", "ECOG %d %s %d", *ecog, op, maxAllowed)
	return passed
}

func (l *evaluationLog) organFunction(labs map[string]float64, required map[string]Range) bool {
	ok := true
	for _, lab := range slices.Sorted(maps.Keys(required)) {
		r := required[lab]
		criterion := "lab_" + lab
		value, present := labs[strings.ToLower(lab)]
		if !present {
			l.add(evalInclusion, false, criterion, "Lab value %s not provided", lab)
			ok = false
			continue
		}
		passed := r.contains(value)
		l.add(evalInclusion, passed, criterion, "%s: %s (required: %s)", lab, formatNumber(value), r)
		ok = passed && ok
	}
	return ok
}

// firstOverlap returns the first term that one of the entries names.
// Entries are free text, so an entry containing the term counts.
func firstOverlap(entries, terms []string) (string, bool) {
	for _, term := range terms {
		t := normalizeTerm(term)
		if t == "" {
			continue
		}
		for _, entry := range entries {
			if strings.Contains(normalizeTerm(entry), t) {
				return term, true
			}
		}
	}
	return "", false
}

func normalizeTerm(s string) string {
	s = strings.ToLower(strings.ReplaceAll(s, "_", " "))
	return strings.Join(strings.Fields(s), " ")
}

func normalizeStatus(s string) string {
	switch s = strings.ToLower(strings.TrimSpace(s)); s {
	case "+", "pos", "mutation", "mutated", "mutant", "detected", "amplified":
		return "positive"
	case "-", "neg", "wild-type", "wild type", "wt", "not detected":
		return "negative"
	default:
		return s
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
