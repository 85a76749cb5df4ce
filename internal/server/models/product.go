package models

// Product is an inventory record. JSON names match the web front-end.
type Product struct {
	ID          int64  `json:"id"`
	Name        string `json:"nombre"`
	Quantity    int    `json:"cantidad"`
	Description string `json:"descripcion"`
	Brand       string `json:"marca"`
	Category    string `json:"categoria"`
	ImageURL    string `json:"imagen_url"`
}
