package models

// Participant is a dependent registered under the caller's account.
type Participant struct {
	ID        int       `json:"id_deportista"`
	FirstName string    `json:"nombres"`
	LastName  string    `json:"apellidos"`
	BirthDate string    `json:"fecha_nacimiento,omitempty"`
	Category  *Category `json:"categoria,omitempty"`
}

// Category groups participants by age bracket.
type Category struct {
	ID   int    `json:"id_categoria,omitempty"`
	Name string `json:"nombre"`
}

// FullName joins first and last name.
func (p Participant) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	default:
		return p.FirstName + " " + p.LastName
	}
}

// CategoryName returns the category label or an empty string.
func (p Participant) CategoryName() string {
	if p.Category == nil {
		return ""
	}
	return p.Category.Name
}
