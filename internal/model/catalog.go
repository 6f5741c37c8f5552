// Package model defines the chat model catalog exposed to clients.
// Catalog entries map stable client-facing IDs to provider-qualified
// gateway names, so the wire API never leaks provider naming schemes.
package model

// Model describes one selectable chat model.
type Model struct {
	// ID is the stable identifier clients send in chat requests.
	ID string `json:"id"`
	// Label is the human-readable name shown in model pickers.
	Label string `json:"label"`
	// Description is a short capability summary.
	Description string `json:"description"`
	// GatewayName is the provider-qualified name passed to the LLM gateway,
	// e.g. "googleai/gemini-2.5-flash".
	GatewayName string `json:"-"`
}

// Catalog is an immutable set of selectable models. Construct it once at
// startup and share it; lookups are safe for concurrent use.
type Catalog struct {
	models []Model
	byID   map[string]Model
	defID  string
}

// NewCatalog builds a catalog from the given models. The first model is the
// default. Panics if models is empty or contains duplicate IDs; the catalog
// is assembled from static wiring, so a bad one is a programming error.
func NewCatalog(models ...Model) *Catalog {
	if len(models) == 0 {
		panic("model: catalog requires at least one model")
	}
	byID := make(map[string]Model, len(models))
	for _, m := range models {
		if _, dup := byID[m.ID]; dup {
			panic("model: duplicate model ID " + m.ID)
		}
		byID[m.ID] = m
	}
	return &Catalog{
		models: append([]Model(nil), models...),
		byID:   byID,
		defID:  models[0].ID,
	}
}

// Lookup returns the model with the given ID.
func (c *Catalog) Lookup(id string) (Model, bool) {
	m, ok := c.byID[id]
	return m, ok
}

// Default returns the catalog's default model.
func (c *Catalog) Default() Model {
	return c.byID[c.defID]
}

// List returns the models in catalog order. The returned slice is a copy.
func (c *Catalog) List() []Model {
	return append([]Model(nil), c.models...)
}

// DefaultCatalog returns the stock model lineup. The default model can be
// overridden by ID; an unknown ID keeps the stock default.
func DefaultCatalog(defaultID string) *Catalog {
	models := []Model{
		{
			ID:          "gemini-flash",
			Label:       "Gemini 2.5 Flash",
			Description: "Fast model for everyday questions",
			GatewayName: "googleai/gemini-2.5-flash",
		},
		{
			ID:          "gemini-pro",
			Label:       "Gemini 2.5 Pro",
			Description: "Stronger reasoning for complex questions",
			GatewayName: "googleai/gemini-2.5-pro",
		},
	}
	if defaultID != "" {
		for i, m := range models {
			if m.ID == defaultID && i != 0 {
				models[0], models[i] = models[i], models[0]
			}
		}
	}
	return NewCatalog(models...)
}
