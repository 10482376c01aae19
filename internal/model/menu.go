package model

import "time"

// MenuItem is a product shown in the public menu.
type MenuItem struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category"`
	BestSeller  bool      `json:"best_seller"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MenuFilter narrows ListMenuItems. Zero value lists everything, newest first.
type MenuFilter struct {
	Category string
	Limit    int
	Offset   int
}

// DefaultCategories are always offered by the admin surface, even before
// any item uses them.
var DefaultCategories = []string{"Coffee", "Milk Shakes", "Smoothies", "Breakfast"}

// Photo is a gallery image. Only the metadata lives here; the bytes are
// hosted elsewhere and referenced by URL.
type Photo struct {
	ID        int64     `json:"id"`
	ImageURL  string    `json:"image_url"`
	Caption   string    `json:"caption,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// HeroRowID is the id of the singleton hero banner row.
const HeroRowID int64 = 3

// Hero is the landing-page banner content.
type Hero struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Subtitle  string    `json:"subtitle"`
	ImageURL  string    `json:"image_url"`
	UpdatedAt time.Time `json:"updated_at"`
}
