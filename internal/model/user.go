package model

// User is a person shown on the users page.
type User struct {
	ID          string  `json:"id"`
	FirstName   string  `json:"fname"`
	LastName    string  `json:"lname"`
	PortraitImg *string `json:"portrait_img"`
	IsFavorite  bool    `json:"isFavorite"`

	// CSRF is an anti-forgery token that older records carry from the
	// signup form. It is kept for round-tripping and never consulted.
	CSRF string `json:"_csrf,omitempty"`
}

// FullName joins the first and last name with a single space.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Portrait returns the stored portrait filename, or "" when there is none.
func (u User) Portrait() string {
	if u.PortraitImg == nil {
		return ""
	}
	return *u.PortraitImg
}
