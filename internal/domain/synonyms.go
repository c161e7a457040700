package domain

// Synonym maps one known source header onto a canonical field name.
// Matching is exact and case-sensitive.
type Synonym struct {
	Header    string
	Canonical string
}

// Synonyms covers both header generations seen in IEA exports: display-style
// single-row headers ("Capex (EUR)") and underscore-joined two-row headers
// ("DATABASE_Announced Size"). Entries are order-independent; precedence
// between source columns resolving to the same canonical name is decided by
// column order in [NormalizeHeader].
var Synonyms = []Synonym{
	{"Country", FieldCountry},
	{"COUNTRY", FieldCountry},
	{"DATABASE_Country", FieldCountry},

	{"Capex (EUR)", FieldInvestment},
	{"Investment EUR", FieldInvestment},
	{"Investment", FieldInvestment},
	{"DATABASE_Announced Size", FieldInvestment},

	{"Project name", FieldProjectName},
	{"Project Name", FieldProjectName},
	{"DATABASE_Project name", FieldProjectName},

	{"Status", FieldStatus},
	{"DATABASE_Status", FieldStatus},

	{"Technology", FieldTechnology},
	{"DATABASE_Technology", FieldTechnology},

	{"Date online", FieldDateOnline},
	{"DATABASE_Date online", FieldDateOnline},

	{"Decommission date", FieldDecommissionDate},
	{"DATABASE_Decommission date", FieldDecommissionDate},
	{"DATABASE_Decomission date", FieldDecommissionDate}, // misspelled in the 2023 export
}

var synonymIndex = buildSynonymIndex(Synonyms)

func buildSynonymIndex(entries []Synonym) map[string]string {
	idx := make(map[string]string, len(entries))
	for _, s := range entries {
		idx[s.Header] = s.Canonical
	}
	return idx
}

// CanonicalName returns the canonical field for a flattened header, or the
// header itself when no synonym matches.
func CanonicalName(header string) (string, bool) {
	if c, ok := synonymIndex[header]; ok {
		return c, true
	}
	return header, false
}
