package review

import "time"

type Author struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ProductRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Review struct {
	ID        string     `json:"id"`
	Content   string     `json:"content"`
	Rating    int        `json:"rating"`
	User      Author     `json:"user"`
	Product   ProductRef `json:"product"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
