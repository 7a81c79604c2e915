package instructor

type Instructor struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Image        string `json:"image,omitempty"`
	ClassesTaken int    `json:"classesTaken"`
}
