package api

// Model is one entry from the aggregator's /models listing.
type Model struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Description   string        `json:"description,omitempty"`
	ContextLength int           `json:"context_length,omitempty"`
	Pricing       *Pricing      `json:"pricing,omitempty"`
	Architecture  *Architecture `json:"architecture,omitempty"`
}

type Pricing struct {
	Prompt     string `json:"prompt"`
	Completion string `json:"completion"`
	Image      string `json:"image,omitempty"`
}

type Architecture struct {
	Modality         string   `json:"modality,omitempty"`
	InputModalities  []string `json:"input_modalities,omitempty"`
	OutputModalities []string `json:"output_modalities,omitempty"`
}

type ModelList struct {
	Data []Model `json:"data"`
}
