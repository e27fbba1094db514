package usecase

import "strings"

// nameVariants generates the spelling variants tried after an exact name
// lookup misses. The phrase itself is never included.
func nameVariants(phrase string) []string {
	p := normalizePhrase(phrase)
	if p == "" {
		return nil
	}

	var out []string
	switch {
	case strings.HasSuffix(p, "ies"):
		// berries -> berry, chilies -> chili / chiles
		stem := strings.TrimSuffix(p, "ies")
		out = append(out, stem+"y", stem+"i", stem+"es")
	case strings.HasSuffix(p, "es"):
		// potatoes -> potato, olives -> olive
		out = append(out, strings.TrimSuffix(p, "es"), strings.TrimSuffix(p, "s"))
	case strings.HasSuffix(p, "s"):
		out = append(out, strings.TrimSuffix(p, "s"))
	default:
		if strings.HasSuffix(p, "y") {
			out = append(out, strings.TrimSuffix(p, "y")+"ies")
		}
		if strings.HasSuffix(p, "o") || strings.HasSuffix(p, "i") {
			out = append(out, p+"es")
		}
		out = append(out, p+"s")
	}

	if head, last, ok := splitLastWord(p); ok && strings.HasSuffix(last, "s") {
		for _, singular := range singularForms(last) {
			out = append(out, head+" "+singular)
		}
	}

	return uniqueVariants(out, p)
}

// aliasVariants generates the narrower plural/singular set used for alias text
func aliasVariants(phrase string) []string {
	p := normalizePhrase(phrase)
	if p == "" {
		return nil
	}

	out := []string{p + "s"}
	if strings.HasSuffix(p, "s") {
		out = append(out, strings.TrimSuffix(p, "s"))
	}
	if head, last, ok := splitLastWord(p); ok && strings.HasSuffix(last, "s") {
		out = append(out, head+" "+strings.TrimSuffix(last, "s"))
	}

	return uniqueVariants(out, p)
}

// singularForms returns the singular spellings tried for a plural word
func singularForms(word string) []string {
	switch {
	case strings.HasSuffix(word, "ies"):
		return []string{strings.TrimSuffix(word, "ies") + "y"}
	case strings.HasSuffix(word, "es"):
		return []string{strings.TrimSuffix(word, "es"), strings.TrimSuffix(word, "s")}
	case strings.HasSuffix(word, "s"):
		return []string{strings.TrimSuffix(word, "s")}
	}
	return nil
}

// splitLastWord splits a multi-word phrase into everything before the last word and the last word
func splitLastWord(p string) (head, last string, ok bool) {
	idx := strings.LastIndex(p, " ")
	if idx <= 0 || idx == len(p)-1 {
		return "", "", false
	}
	return p[:idx], p[idx+1:], true
}

// normalizePhrase lower-cases, trims, and collapses internal whitespace
func normalizePhrase(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// uniqueVariants drops empty entries, duplicates, and the original phrase
func uniqueVariants(variants []string, original string) []string {
	seen := map[string]bool{original: true}
	out := make([]string, 0, len(variants))
	for _, v := range variants {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
