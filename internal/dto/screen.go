package dto

// MountedScreen is returned when a screen is mounted. Later interactions
// address the screen by ID.
type MountedScreen struct {
	ID   string      `json:"id"`
	View interface{} `json:"view"`
}
