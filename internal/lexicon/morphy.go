package lexicon

import "strings"

type suffixRule struct {
	old, new string
}

// detachments are WordNet's inflectional suffix substitutions per part of speech.
var detachments = map[POS][]suffixRule{
	Noun: {
		{"s", ""}, {"ses", "s"}, {"ves", "f"}, {"xes", "x"}, {"zes", "z"},
		{"ches", "ch"}, {"shes", "sh"}, {"men", "man"}, {"ies", "y"},
	},
	Verb: {
		{"s", ""}, {"ies", "y"}, {"es", "e"}, {"es", ""},
		{"ed", "e"}, {"ed", ""}, {"ing", "e"}, {"ing", ""},
	},
	Adjective: {
		{"er", ""}, {"est", ""}, {"er", "e"}, {"est", "e"},
	},
}

// morphy returns the base forms of form that are indexed under pos.
// Irregular forms come from the exception list; otherwise the form itself
// and one round of detachments are tried, then detachments are reapplied
// until something is found or no rule applies.
func (o *Ontology) morphy(form string, pos POS) []string {
	if bases, ok := o.exceptions[pos][form]; ok {
		return o.indexed(append([]string{form}, bases...), pos)
	}

	forms := applyDetachments([]string{form}, pos)
	if found := o.indexed(append([]string{form}, forms...), pos); len(found) > 0 {
		return found
	}
	for len(forms) > 0 {
		forms = applyDetachments(forms, pos)
		if found := o.indexed(forms, pos); len(found) > 0 {
			return found
		}
	}
	return nil
}

func applyDetachments(forms []string, pos POS) []string {
	var out []string
	for _, f := range forms {
		for _, r := range detachments[pos] {
			if !strings.HasSuffix(f, r.old) {
				continue
			}
			base := strings.TrimSuffix(f, r.old) + r.new
			if base != "" {
				out = append(out, base)
			}
		}
	}
	return out
}

// indexed keeps the forms present in the lemma index for pos, deduplicated.
func (o *Ontology) indexed(forms []string, pos POS) []string {
	var out []string
	seen := make(map[string]bool, len(forms))
	for _, f := range forms {
		if seen[f] {
			continue
		}
		if _, ok := o.index[pos][f]; ok {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}
