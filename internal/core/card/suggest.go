package card

import (
	"strings"

	"github.com/berfenger/tdsflow/internal/core/hass"
)

// Suggest binds each slot to the first candidate whose id contains one of
// the slot name fragments, ignoring case. Flow falls back to the first
// candidate. Slots without a match are left out.
func Suggest(candidates []string) Config {
	cfg := Config{KEY_NAME: DEFAULT_NAME}
	for _, spec := range slotSpecs {
		if id := findFirst(candidates, spec.fragments); id != "" {
			cfg.SetEntity(spec.id, id)
		} else if spec.id == SLOT_FLOW && len(candidates) > 0 {
			cfg.SetEntity(spec.id, candidates[0])
		}
	}
	return cfg
}

// StubConfig is the config offered when the card is first added: the
// suggestion over every sensor the host knows.
func StubConfig(store hass.StateStore) Config {
	return Suggest(hass.FilterDomain(store.EntityIDs(), "sensor"))
}

func findFirst(candidates []string, fragments []string) string {
	for _, fragment := range fragments {
		for _, candidate := range candidates {
			if strings.Contains(strings.ToLower(candidate), fragment) {
				return candidate
			}
		}
	}
	return ""
}
