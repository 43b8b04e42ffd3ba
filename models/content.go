package models

import (
	"time"
)

// Service is a care offering shown on the marketing pages.
type Service struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Icon        string   `json:"icon"`
	Details     []string `json:"details"`
}

// Feature is a selling point shown next to the services.
type Feature struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Plan is a bookable subscription. Price is in minor currency units.
type Plan struct {
	Name       string   `json:"name"`
	Price      int64    `json:"price"`
	Currency   string   `json:"currency"`
	Features   []string `json:"features"`
	ButtonText string   `json:"button_text"`
	Featured   bool     `json:"featured"`
}

type Testimonial struct {
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Content   string `json:"content"`
}

type FeaturedNurse struct {
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	ImageURL  string `json:"image_url"`
	Featured  bool   `json:"featured"`
}

// BlogPost content is markdown.
type BlogPost struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Excerpt   *string   `json:"excerpt"`
	ImageURL  *string   `json:"image_url"`
	AuthorID  *string   `json:"author_id"`
	Category  string    `json:"category"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"created_at"`
}

type ContactMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
