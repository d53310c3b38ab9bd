package collection

// Plant is a saved, user-confirmed identification. Records are never updated
// after they are saved.
type Plant struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Family string `json:"family"`
	Care   string `json:"care"`
	Image  string `json:"image"`
}

// Candidate is an identification result that has not been saved yet.
type Candidate struct {
	Name   string `json:"name"`
	Family string `json:"family"`
	Care   string `json:"care"`
	Image  string `json:"image"`
}

func (c Candidate) withID(id string) Plant {
	return Plant{
		ID:     id,
		Name:   c.Name,
		Family: c.Family,
		Care:   c.Care,
		Image:  c.Image,
	}
}
