package slots

import "strings"

var stateNames = map[string]string{
	"AL": "Alabama", "AK": "Alaska", "AZ": "Arizona", "AR": "Arkansas",
	"CA": "California", "CO": "Colorado", "CT": "Connecticut", "DE": "Delaware",
	"DC": "District of Columbia", "FL": "Florida", "GA": "Georgia", "HI": "Hawaii",
	"ID": "Idaho", "IL": "Illinois", "IN": "Indiana", "IA": "Iowa",
	"KS": "Kansas", "KY": "Kentucky", "LA": "Louisiana", "ME": "Maine",
	"MD": "Maryland", "MA": "Massachusetts", "MI": "Michigan", "MN": "Minnesota",
	"MS": "Mississippi", "MO": "Missouri", "MT": "Montana", "NE": "Nebraska",
	"NV": "Nevada", "NH": "New Hampshire", "NJ": "New Jersey", "NM": "New Mexico",
	"NY": "New York", "NC": "North Carolina", "ND": "North Dakota", "OH": "Ohio",
	"OK": "Oklahoma", "OR": "Oregon", "PA": "Pennsylvania", "RI": "Rhode Island",
	"SC": "South Carolina", "SD": "South Dakota", "TN": "Tennessee", "TX": "Texas",
	"UT": "Utah", "VT": "Vermont", "VA": "Virginia", "WA": "Washington",
	"WV": "West Virginia", "WI": "Wisconsin", "WY": "Wyoming", "PR": "Puerto Rico",
}

var stateCodes = func() map[string]string {
	m := make(map[string]string, len(stateNames))
	for code, name := range stateNames {
		m[strings.ToLower(name)] = code
	}
	return m
}()

// CanonicalState resolves a state name or abbreviation to its two-letter
// code. ok is false for values outside the table.
func CanonicalState(value string) (code string, ok bool) {
	v := strings.Join(strings.Fields(strings.ToLower(strings.TrimSuffix(strings.TrimSpace(value), "."))), " ")
	if v == "" {
		return "", false
	}
	if _, ok := stateNames[strings.ToUpper(v)]; ok && len(v) == 2 {
		return strings.ToUpper(v), true
	}
	code, ok = stateCodes[v]
	return code, ok
}

// StateVariants lists the values to try against the state field, canonical
// code first, then the full name, then the raw inputs and their uppercase
// forms. Upstream records are not consistently normalized, so later entries
// are fallbacks.
func StateVariants(state, abbr string) []string {
	var out []string
	seen := map[string]bool{}
	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			return
		}
		seen[v] = true
		out = append(out, v)
	}
	for _, raw := range []string{abbr, state} {
		if code, ok := CanonicalState(raw); ok {
			add(code)
			add(stateNames[code])
			break
		}
	}
	add(state)
	add(abbr)
	add(strings.ToUpper(state))
	add(strings.ToUpper(abbr))
	return out
}
