package lexical

import (
	"strings"
)

// StyleMap holds the inline CSS declarations of a text node.
type StyleMap map[string]string

// ParseStyle parses a node's style attribute, e.g.
// "color: #F97316; background-color: #BFDBFE;".
func ParseStyle(styleStr string) StyleMap {
	styles := make(StyleMap)
	if styleStr == "" {
		return styles
	}

	parts := strings.Split(styleStr, ";")
	for _, part := range parts {
		kv := strings.SplitN(part, ":", 2)
		if len(kv) == 2 {
			k := strings.TrimSpace(kv[0])
			v := strings.TrimSpace(kv[1])
			if k != "" && v != "" {
				styles[k] = v
			}
		}
	}
	return styles
}

// BuildAnnotatedOpenTag renders an opening span carrying only the styles
// worth surfacing to the model. Returns "" when none apply.
func (s StyleMap) BuildAnnotatedOpenTag() string {
	var relevant []string

	whitelist := []string{"color", "background-color", "text-transform"}

	for _, k := range whitelist {
		if v, ok := s[k]; ok {
			relevant = append(relevant, k+":"+v)
		}
	}

	if len(relevant) == 0 {
		return ""
	}

	return "<span style=\"" + strings.Join(relevant, "; ") + "\">"
}
