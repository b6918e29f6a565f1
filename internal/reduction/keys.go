package reduction

import (
	"fmt"
	"strings"

	"alertengine/internal/domain"
)

// Keys holds the rendered identity keys for one (event, definition) pair.
// Params: mandatory reduction key and optional clear key.
// Returns: fold-target lookup keys.
type Keys struct {
	ReductionKey string
	ClearKey     string
}

// HasClearKey reports whether the definition configured a clear key.
// Params: none.
// Returns: true when a clear key was rendered.
func (k Keys) HasClearKey() bool {
	return k.ClearKey != ""
}

// Render substitutes event and definition values into the key templates.
// Params: event and its matching definition.
// Returns: rendered keys or a configuration error for malformed templates.
//
// Reduction key templates receive, in fixed positional order: tenant id,
// event UEI, node id, and the owning policy id. Clear key templates name
// the raising alert's reduction key, whose UEI is baked into the template
// text, so they receive only tenant id and node id. A template may consume
// a prefix of its list but never reorder it.
func Render(event domain.Event, definition domain.AlertDefinition) (Keys, error) {
	reductionKey, err := renderTemplate(definition.ReductionKey,
		[]any{event.TenantID, event.UEI, event.NodeID, definition.PolicyID})
	if err != nil {
		return Keys{}, fmt.Errorf("reduction key template: %w", err)
	}
	keys := Keys{ReductionKey: reductionKey}
	if definition.ClearKey == "" {
		return keys, nil
	}
	clearKey, err := renderTemplate(definition.ClearKey,
		[]any{event.TenantID, event.NodeID})
	if err != nil {
		return Keys{}, fmt.Errorf("clear key template: %w", err)
	}
	keys.ClearKey = clearKey
	return keys, nil
}

// ArchiveKeys rewrites a cleared alert's keys into the archive namespace.
// Params: cleared alert to archive.
// Returns: unique archived keys releasing the live ones.
func ArchiveKeys(alert domain.Alert) Keys {
	keys := Keys{ReductionKey: "archive:" + alert.ReductionKey + ":" + alert.ID}
	if alert.ClearKey != "" {
		keys.ClearKey = "archive:" + alert.ClearKey + ":" + alert.ID
	}
	return keys
}

// renderTemplate formats one key template with the positional substitutions.
// Params: template string and its ordered substitution values.
// Returns: rendered key or error on empty/malformed template.
func renderTemplate(template string, args []any) (string, error) {
	if strings.TrimSpace(template) == "" {
		return "", fmt.Errorf("empty template")
	}
	verbs, err := parseVerbs(template)
	if err != nil {
		return "", err
	}
	if len(verbs) > len(args) {
		return "", fmt.Errorf("template %q wants %d substitutions, only %d available", template, len(verbs), len(args))
	}
	for i, verb := range verbs {
		if err := checkVerb(verb, args[i]); err != nil {
			return "", fmt.Errorf("template %q substitution %d: %w", template, i+1, err)
		}
	}
	return fmt.Sprintf(template, args[:len(verbs)]...), nil
}

// parseVerbs collects substitution verbs in order and rejects unsupported ones.
// Params: template string.
// Returns: verb list or error on anything besides %s, %d, and %%.
func parseVerbs(template string) ([]byte, error) {
	var verbs []byte
	for i := 0; i < len(template); i++ {
		if template[i] != '%' {
			continue
		}
		if i+1 >= len(template) {
			return nil, fmt.Errorf("template %q ends with a dangling %%", template)
		}
		switch template[i+1] {
		case 's', 'd':
			verbs = append(verbs, template[i+1])
		case '%':
		default:
			return nil, fmt.Errorf("template %q uses unsupported verb %%%c", template, template[i+1])
		}
		i++
	}
	return verbs, nil
}

// checkVerb rejects verb/value type mismatches before they corrupt a key.
// Params: verb byte and its positional substitution value.
// Returns: error when fmt would render a mismatch diagnostic into the key.
func checkVerb(verb byte, arg any) error {
	switch verb {
	case 's':
		if _, ok := arg.(string); !ok {
			return fmt.Errorf("%%s needs a string, position holds %T", arg)
		}
	case 'd':
		if _, ok := arg.(int64); !ok {
			return fmt.Errorf("%%d needs an integer, position holds %T", arg)
		}
	}
	return nil
}
