package types

// Profile is the free-form profile a user keeps on this client only.
// It is never sent to the backend.
type Profile struct {
	Phone      string   `json:"phone"`
	Location   string   `json:"location"`
	Bio        string   `json:"bio"`
	Skills     []string `json:"skills"`
	Experience string   `json:"experience"`
	Education  string   `json:"education"`
}

// DefaultProfile returns the placeholder profile shown before the user edits it.
func DefaultProfile() Profile {
	return Profile{
		Phone:      "###-###-####",
		Location:   "Enter location",
		Bio:        "Add a professional bio to showcase your experience and goals.",
		Skills:     []string{},
		Experience: "Add your work experience",
		Education:  "Add your education background",
	}
}
