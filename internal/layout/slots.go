package layout

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrConfiguration marks missing or insufficient slot configuration. The
// display cannot render without it, so callers surface this as a server-side
// failure rather than a client error.
var ErrConfiguration = errors.New("layout: configuration error")

// Slot is one configured display position. Row and Col drive the grid
// formula; explicit X/Y/W/H pixel overrides take precedence when present.
type Slot struct {
	SlotNumber int  `json:"slotNumber"`
	Row        int  `json:"row"`
	Col        int  `json:"col"`
	X          *int `json:"x,omitempty"`
	Y          *int `json:"y,omitempty"`
	W          *int `json:"w,omitempty"`
	H          *int `json:"h,omitempty"`
	Disabled   bool `json:"disabled,omitempty"`
}

// LoadSlots reads slot definitions from a JSON file and returns the enabled
// ones in file order. Fails when the file is missing, malformed, or supplies
// fewer enabled slots than the active display layout requires.
func LoadSlots(path string, minEnabled int) ([]Slot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read slot file %s: %v", ErrConfiguration, path, err)
	}

	var all []Slot
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("%w: failed to parse slot file %s: %v", ErrConfiguration, path, err)
	}

	enabled := make([]Slot, 0, len(all))
	for _, slot := range all {
		if !slot.Disabled {
			enabled = append(enabled, slot)
		}
	}
	if len(enabled) < minEnabled {
		return nil, fmt.Errorf("%w: need at least %d enabled slots, found %d", ErrConfiguration, minEnabled, len(enabled))
	}

	return enabled, nil
}
