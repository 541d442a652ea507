package domain

import "time"

type Book struct {
	ID          int64
	Title       string
	Author      string
	Description string
	Price       float64
	Cover       string
	CreatedAt   time.Time
}
