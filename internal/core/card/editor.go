package card

// Field is one entry of the editor form schema, in the shape ha-form
// expects. Expandable fields group the per slot settings.
type Field struct {
	Name     string         `json:"name"`
	Type     string         `json:"type,omitempty"`
	Title    string         `json:"title,omitempty"`
	Icon     string         `json:"icon,omitempty"`
	Label    string         `json:"label,omitempty"`
	Selector map[string]any `json:"selector,omitempty"`
	Schema   []Field        `json:"schema,omitempty"`
	Expanded bool           `json:"expanded,omitempty"`
}

func textSelector() map[string]any {
	return map[string]any{"text": map[string]any{}}
}

func sensorSelector() map[string]any {
	return map[string]any{"entity": map[string]any{"domain": "sensor"}}
}

func booleanSelector() map[string]any {
	return map[string]any{"boolean": map[string]any{}}
}

func iconSelector() map[string]any {
	return map[string]any{"icon": map[string]any{}}
}

func actionSelector() map[string]any {
	return map[string]any{"ui_action": map[string]any{}}
}

// EditorSchema returns the editor form: the name, then one expandable
// section per slot. The flow section starts expanded.
func EditorSchema() []Field {
	fields := []Field{
		{Name: KEY_NAME, Label: ComputeLabel(KEY_NAME), Selector: textSelector()},
	}
	for _, spec := range slotSpecs {
		id := spec.id
		fields = append(fields, Field{
			Name:     string(id),
			Type:     "expandable",
			Title:    spec.section,
			Icon:     spec.icon,
			Expanded: id == SLOT_FLOW,
			Schema: []Field{
				{Name: id.EntityKey(), Label: ComputeLabel(id.EntityKey()), Selector: sensorSelector()},
				{Name: id.NameKey(), Label: ComputeLabel(id.NameKey()), Selector: textSelector()},
				{Name: id.ShowIconKey(), Label: ComputeLabel(id.ShowIconKey()), Selector: booleanSelector()},
				{Name: id.IconKey(), Label: ComputeLabel(id.IconKey()), Selector: iconSelector()},
				{Name: id.TapActionKey(), Label: ComputeLabel(id.TapActionKey()), Selector: actionSelector()},
				{Name: id.IconTapActionKey(), Label: ComputeLabel(id.IconTapActionKey()), Selector: actionSelector()},
			},
		})
	}
	return fields
}

// ComputeLabel maps a config key to the text shown next to its input.
// Unknown keys are shown as is.
func ComputeLabel(key string) string {
	if key == KEY_NAME {
		return "Name (optional)"
	}
	for _, spec := range slotSpecs {
		switch key {
		case spec.id.EntityKey():
			return spec.editorLabel
		case spec.id.NameKey():
			return spec.label + " label"
		case spec.id.ShowIconKey():
			return "Show " + spec.label + " icon"
		case spec.id.IconKey():
			return spec.label + " icon"
		case spec.id.TapActionKey():
			return spec.label + " tap action"
		case spec.id.IconTapActionKey():
			return spec.label + " icon tap action"
		}
	}
	return key
}

// EditorData is what the form is filled with: defaults for the name and
// the entity pickers, overlaid with the config.
func EditorData(cfg Config) Config {
	data := Config{KEY_NAME: DEFAULT_NAME}
	for _, spec := range slotSpecs {
		data[spec.id.EntityKey()] = ""
	}
	for k, v := range cfg {
		data[k] = v
	}
	return data
}

// ApplyEdit merges editor changes into a copy of cfg. A nil value removes
// the key; every key not named in changes is kept as is.
func ApplyEdit(cfg Config, changes map[string]any) Config {
	out := cfg.Clone()
	for k, v := range changes {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}
