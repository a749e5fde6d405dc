package domain

import (
	"regexp"
	"strconv"
	"strings"
)

// labFields are the numeric intake fields exposed to organ function checks,
// keyed by category.
var labFields = map[string][]string{
	"laboratory": {"hemoglobin", "anc", "platelets", "ast", "alt", "bilirubin", "creatinine", "egfr"},
	"safety":     {"lvef", "qtInterval"},
}

var (
	listSeparators = regexp.MustCompile(`[,;\n]+`)
	leadingDigit   = regexp.MustCompile(`^\s*([0-5])\b`)
	// "PD-L1 positive", "PD-L1: 50", "HER2+", "EGFR mutation"
	biomarkerItem = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9/\-]*)\s*[:=]?\s*(\S.*)?$`)
)

// ProfileFromAnswers builds the checker's view of an applicant from intake
// answers keyed by category id and field name. Unanswered or unparsable
// values stay absent.
func ProfileFromAnswers(answers map[string]map[string]string) Profile {
	value := func(category, field string) string {
		return strings.TrimSpace(answers[category][field])
	}

	p := Profile{
		Biomarkers: map[string]string{},
		Labs:       map[string]float64{},
	}

	if age, err := strconv.ParseFloat(value("demographics", "age"), 64); err == nil {
		p.Age = &age
	}

	p.Diagnoses = append(splitList(value("diagnosis", "diagnosis")), splitList(value("diagnosis", "diseaseSubtype"))...)

	for _, text := range []string{value("diagnosis", "biomarkerStatus"), value("genetic", "mutations")} {
		for _, item := range splitList(text) {
			if name, status, ok := parseBiomarker(item); ok {
				if _, seen := p.Biomarkers[name]; !seen {
					p.Biomarkers[name] = status
				}
			}
		}
	}

	if m := leadingDigit.FindStringSubmatch(value("functional", "ecogScore")); m != nil {
		ecog, _ := strconv.Atoi(m[1])
		p.ECOG = &ecog
	}

	for category, fields := range labFields {
		for _, field := range fields {
			if n, err := strconv.ParseFloat(value(category, field), 64); err == nil {
				p.Labs[strings.ToLower(field)] = n
			}
		}
	}

	p.Pregnant = strings.EqualFold(value("demographics", "pregnant"), "Yes") ||
		strings.EqualFold(value("reproductive", "pregnancyTest"), "Positive")

	p.PriorTreatments = splitList(value("treatments", "previousTherapies"))
	p.Conditions = append(splitList(value("medical-history", "comorbidities")), splitList(value("safety", "infections"))...)

	return p
}

func splitList(text string) []string {
	var out []string
	for _, part := range listSeparators.Split(text, -1) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseBiomarker splits one free-text entry into a lower-case marker name
// and its status. A bare "HER2+" yields ("her2", "+"); a bare name counts as
// detected.
func parseBiomarker(item string) (string, string, bool) {
	item = strings.TrimSpace(item)
	if item == "" {
		return "", "", false
	}
	if strings.HasSuffix(item, "+") || strings.HasSuffix(item, "-") {
		name := strings.TrimSpace(item[:len(item)-1])
		if name != "" && !strings.ContainsAny(name, " \t") {
			return strings.ToLower(name), item[len(item)-1:], true
		}
	}
	m := biomarkerItem.FindStringSubmatch(item)
	if m == nil {
		return "", "", false
	}
	status := strings.TrimSpace(m[2])
	if status == "" {
		status = "detected"
	}
	return strings.ToLower(m[1]), status, true
}
