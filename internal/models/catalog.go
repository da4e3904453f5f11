package models

// NameRecord is the shared shape of categories, districts and networks.
// Backed by tables `categories`, `districts` and `networks`.
type NameRecord struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// NameRecordPayload is the write payload for the name-record surfaces.
type NameRecordPayload struct {
	Name *string `json:"name"`
}

// Validate checks the create/update payload for a name record.
func (p *NameRecordPayload) Validate() FieldErrors {
	errs := FieldErrors{}
	if p.Name == nil || *p.Name == "" {
		errs.Add("name", ErrRequiredField)
	}
	return errs
}

// Product is a product or service offered by organizations.
// Backed by table `products`; `category` carries the category name in the
// read representation.
type Product struct {
	ID       int64   `json:"id" db:"id"`
	Name     string  `json:"name" db:"name"`
	Category string  `json:"category" db:"category"`
	ImageURL *string `json:"image_url,omitempty" db:"image_url"`
}

// ProductPayload is the write payload for products. Category is the
// referenced category id, not its name.
type ProductPayload struct {
	Name     *string `json:"name"`
	Category *int64  `json:"category"`
}

// Validate checks a product create payload; both fields are required.
func (p *ProductPayload) Validate() FieldErrors {
	errs := FieldErrors{}
	if p.Name == nil || *p.Name == "" {
		errs.Add("name", ErrRequiredField)
	}
	if p.Category == nil {
		errs.Add("category", ErrRequiredField)
	}
	return errs
}
