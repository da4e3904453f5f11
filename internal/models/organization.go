package models

import "fmt"

// Organization is the nested read representation of the aggregate:
// the organization row, its network name, its full district records and one
// priced entry per product it offers. Counts are derived from the join
// tables at read time.
type Organization struct {
	ID             int64                 `json:"id" db:"id"`
	Name           string                `json:"name" db:"name"`
	Description    string                `json:"description" db:"description"`
	Network        string                `json:"network" db:"network"`
	CountProducts  int                   `json:"count_products"`
	CountDistricts int                   `json:"count_districts"`
	Districts      []NameRecord          `json:"district"`
	Products       []OrganizationProduct `json:"product"`
}

// OrganizationProduct is one priced product entry inside the aggregate read
// representation. Category carries the category name.
type OrganizationProduct struct {
	ID       int64  `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	Category string `json:"category" db:"category"`
	Price    int64  `json:"price" db:"price"`
}

// ProductPricePayload is one product entry of the aggregate write payload.
type ProductPricePayload struct {
	ID    *int64 `json:"id"`
	Price *int64 `json:"price"`
}

// OrganizationPayload is the flat write payload for the aggregate. All
// fields are pointers so a partial update can distinguish an absent key from
// a present-but-empty value: absent scalar fields keep their prior value and
// an absent district/product key leaves the association set untouched, while
// a present (possibly empty) list fully replaces it.
type OrganizationPayload struct {
	Name        *string                `json:"name"`
	Description *string                `json:"description"`
	Network     *int64                 `json:"network"`
	Districts   *[]int64               `json:"district"`
	Products    *[]ProductPricePayload `json:"product"`
}

// ValidateCreate checks the payload for the aggregate create operation:
// required scalar fields plus the shared product entry rules.
func (p *OrganizationPayload) ValidateCreate() FieldErrors {
	errs := FieldErrors{}
	if p.Name == nil || *p.Name == "" {
		errs.Add("name", ErrRequiredField)
	}
	if p.Description == nil {
		errs.Add("description", ErrRequiredField)
	}
	if p.Network == nil {
		errs.Add("network", ErrRequiredField)
	}
	p.validateProducts(errs)
	return errs
}

// ValidateUpdate checks the payload for the aggregate update operation.
// Every key is optional; submitted product entries still have to be complete
// and non-negative.
func (p *OrganizationPayload) ValidateUpdate() FieldErrors {
	errs := FieldErrors{}
	if p.Name != nil && *p.Name == "" {
		errs.Add("name", ErrRequiredField)
	}
	p.validateProducts(errs)
	return errs
}

func (p *OrganizationPayload) validateProducts(errs FieldErrors) {
	if p.Products == nil {
		return
	}
	for i, entry := range *p.Products {
		if entry.ID == nil {
			errs.Add(fmt.Sprintf("product[%d].id", i), ErrRequiredField)
		}
		if entry.Price == nil {
			errs.Add(fmt.Sprintf("product[%d].price", i), ErrRequiredField)
		} else if *entry.Price < 0 {
			errs.Add(fmt.Sprintf("product[%d].price", i), ErrNegativePrice)
		}
	}
}

// DistrictSet returns the submitted district ids with duplicates removed,
// preserving first-seen order. Duplicate ids in the payload would otherwise
// inflate the derived district count.
func (p *OrganizationPayload) DistrictSet() []int64 {
	if p.Districts == nil {
		return nil
	}
	seen := make(map[int64]bool, len(*p.Districts))
	out := make([]int64, 0, len(*p.Districts))
	for _, id := range *p.Districts {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
