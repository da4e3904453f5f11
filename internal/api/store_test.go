package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/cityscope/cityscope/backend/directory-service/internal/db"
	"github.com/cityscope/cityscope/backend/directory-service/internal/models"
)

// memStore is an in-memory Store implementation with the same contract as
// the Postgres one, including cascade deletes and derived counts.
type memStore struct {
	nextID int64

	records  map[string][]models.NameRecord // categories, districts, networks
	products []memProduct
	orgs     []memOrg
	odRows   []memJoin // district associations
	poRows   []memJoin // priced product associations
}

type memProduct struct {
	ID         int64
	Name       string
	CategoryID int64
	ImageURL   *string
}

type memOrg struct {
	ID          int64
	Name        string
	Description string
	NetworkID   int64
}

type memJoin struct {
	ID    int64
	Ref   int64 // district or product id
	OrgID int64
	Price int64
}

func newMemStore() *memStore {
	return &memStore{
		records: map[string][]models.NameRecord{
			db.TableCategories: {},
			db.TableDistricts:  {},
			db.TableNetworks:   {},
		},
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func notFound(table string, id int64) error {
	return fmt.Errorf("%s id %d: %w", table, id, db.ErrNotFound)
}

func (s *memStore) Health(ctx context.Context) error { return nil }

func (s *memStore) findRecord(table string, id int64) (models.NameRecord, bool) {
	for _, r := range s.records[table] {
		if r.ID == id {
			return r, true
		}
	}
	return models.NameRecord{}, false
}

func (s *memStore) ListNameRecords(ctx context.Context, table string) ([]models.NameRecord, error) {
	rows := s.records[table]
	out := make([]models.NameRecord, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		out = append(out, rows[i])
	}
	return out, nil
}

func (s *memStore) GetNameRecord(ctx context.Context, table string, id int64) (*models.NameRecord, error) {
	r, ok := s.findRecord(table, id)
	if !ok {
		return nil, notFound(table, id)
	}
	return &r, nil
}

func (s *memStore) CreateNameRecord(ctx context.Context, table string, name string) (*models.NameRecord, error) {
	r := models.NameRecord{ID: s.id(), Name: name}
	s.records[table] = append(s.records[table], r)
	return &r, nil
}

func (s *memStore) UpdateNameRecord(ctx context.Context, table string, id int64, name string) (*models.NameRecord, error) {
	for i, r := range s.records[table] {
		if r.ID == id {
			s.records[table][i].Name = name
			return &s.records[table][i], nil
		}
	}
	return nil, notFound(table, id)
}

func (s *memStore) DeleteNameRecord(ctx context.Context, table string, id int64) error {
	rows := s.records[table]
	for i, r := range rows {
		if r.ID != id {
			continue
		}
		s.records[table] = append(rows[:i:i], rows[i+1:]...)
		switch table {
		case db.TableDistricts:
			s.odRows = dropJoins(s.odRows, func(j memJoin) bool { return j.Ref == id })
		case db.TableCategories:
			for _, p := range s.products {
				if p.CategoryID == id {
					pid := p.ID
					s.poRows = dropJoins(s.poRows, func(j memJoin) bool { return j.Ref == pid })
				}
			}
			kept := s.products[:0]
			for _, p := range s.products {
				if p.CategoryID != id {
					kept = append(kept, p)
				}
			}
			s.products = kept
		case db.TableNetworks:
			for _, o := range s.orgs {
				if o.NetworkID == id {
					oid := o.ID
					s.odRows = dropJoins(s.odRows, func(j memJoin) bool { return j.OrgID == oid })
					s.poRows = dropJoins(s.poRows, func(j memJoin) bool { return j.OrgID == oid })
				}
			}
			keptOrgs := s.orgs[:0]
			for _, o := range s.orgs {
				if o.NetworkID != id {
					keptOrgs = append(keptOrgs, o)
				}
			}
			s.orgs = keptOrgs
		}
		return nil
	}
	return notFound(table, id)
}

func dropJoins(rows []memJoin, match func(memJoin) bool) []memJoin {
	kept := rows[:0]
	for _, j := range rows {
		if !match(j) {
			kept = append(kept, j)
		}
	}
	return kept
}

func (s *memStore) productView(p memProduct) (models.Product, error) {
	cat, ok := s.findRecord(db.TableCategories, p.CategoryID)
	if !ok {
		return models.Product{}, notFound(db.TableCategories, p.CategoryID)
	}
	return models.Product{ID: p.ID, Name: p.Name, Category: cat.Name, ImageURL: p.ImageURL}, nil
}

func (s *memStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	out := make([]models.Product, 0, len(s.products))
	for i := len(s.products) - 1; i >= 0; i-- {
		v, err := s.productView(s.products[i])
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *memStore) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	for _, p := range s.products {
		if p.ID == id {
			v, err := s.productView(p)
			if err != nil {
				return nil, err
			}
			return &v, nil
		}
	}
	return nil, notFound("products", id)
}

func (s *memStore) CreateProduct(ctx context.Context, name string, categoryID int64) (*models.Product, error) {
	if _, ok := s.findRecord(db.TableCategories, categoryID); !ok {
		return nil, notFound(db.TableCategories, categoryID)
	}
	p := memProduct{ID: s.id(), Name: name, CategoryID: categoryID}
	s.products = append(s.products, p)
	v, err := s.productView(p)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *memStore) UpdateProduct(ctx context.Context, id int64, payload models.ProductPayload) (*models.Product, error) {
	for i, p := range s.products {
		if p.ID != id {
			continue
		}
		if payload.Category != nil {
			if _, ok := s.findRecord(db.TableCategories, *payload.Category); !ok {
				return nil, notFound(db.TableCategories, *payload.Category)
			}
			s.products[i].CategoryID = *payload.Category
		}
		if payload.Name != nil {
			s.products[i].Name = *payload.Name
		}
		v, err := s.productView(s.products[i])
		if err != nil {
			return nil, err
		}
		return &v, nil
	}
	return nil, notFound("products", id)
}

func (s *memStore) DeleteProduct(ctx context.Context, id int64) error {
	for i, p := range s.products {
		if p.ID == id {
			s.products = append(s.products[:i:i], s.products[i+1:]...)
			s.poRows = dropJoins(s.poRows, func(j memJoin) bool { return j.Ref == id })
			return nil
		}
	}
	return notFound("products", id)
}

func (s *memStore) SetProductImage(ctx context.Context, id int64, imageURL string) error {
	for i, p := range s.products {
		if p.ID == id {
			s.products[i].ImageURL = &imageURL
			return nil
		}
	}
	return notFound("products", id)
}

func (s *memStore) orgView(o memOrg) (*models.Organization, error) {
	network, ok := s.findRecord(db.TableNetworks, o.NetworkID)
	if !ok {
		return nil, notFound(db.TableNetworks, o.NetworkID)
	}
	org := models.Organization{
		ID:          o.ID,
		Name:        o.Name,
		Description: o.Description,
		Network:     network.Name,
		Districts:   []models.NameRecord{},
		Products:    []models.OrganizationProduct{},
	}
	for _, j := range s.odRows {
		if j.OrgID != o.ID {
			continue
		}
		d, ok := s.findRecord(db.TableDistricts, j.Ref)
		if !ok {
			return nil, notFound(db.TableDistricts, j.Ref)
		}
		org.Districts = append(org.Districts, d)
	}
	for _, j := range s.poRows {
		if j.OrgID != o.ID {
			continue
		}
		p, err := s.GetProduct(context.Background(), j.Ref)
		if err != nil {
			return nil, err
		}
		org.Products = append(org.Products, models.OrganizationProduct{
			ID:       p.ID,
			Name:     p.Name,
			Category: p.Category,
			Price:    j.Price,
		})
	}
	org.CountDistricts = len(org.Districts)
	org.CountProducts = len(org.Products)
	return &org, nil
}

func (s *memStore) GetOrganization(ctx context.Context, id int64) (*models.Organization, error) {
	for _, o := range s.orgs {
		if o.ID == id {
			return s.orgView(o)
		}
	}
	return nil, notFound("organizations", id)
}

func (s *memStore) ListOrganizations(ctx context.Context) ([]models.Organization, error) {
	out := make([]models.Organization, 0, len(s.orgs))
	for i := len(s.orgs) - 1; i >= 0; i-- {
		v, err := s.orgView(s.orgs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

func (s *memStore) ListOrganizationsByDistrict(ctx context.Context, districtID int64, search string, categories []string) ([]models.Organization, error) {
	all, err := s.ListOrganizations(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Organization, 0)
	for _, org := range all {
		inDistrict := false
		for _, d := range org.Districts {
			if d.ID == districtID {
				inDistrict = true
				break
			}
		}
		if !inDistrict {
			continue
		}
		if search != "" {
			matched := false
			for _, p := range org.Products {
				if strings.HasPrefix(strings.ToLower(p.Name), strings.ToLower(search)) {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		if len(categories) > 0 {
			matched := false
			for _, p := range org.Products {
				for _, cat := range categories {
					if p.Category == cat {
						matched = true
						break
					}
				}
			}
			if !matched {
				continue
			}
		}
		out = append(out, org)
	}
	return out, nil
}

func (s *memStore) checkAggregateRefs(payload models.OrganizationPayload, checkNetwork bool) error {
	if checkNetwork && payload.Network != nil {
		if _, ok := s.findRecord(db.TableNetworks, *payload.Network); !ok {
			return notFound(db.TableNetworks, *payload.Network)
		}
	}
	if payload.Districts != nil {
		for _, id := range *payload.Districts {
			if _, ok := s.findRecord(db.TableDistricts, id); !ok {
				return notFound(db.TableDistricts, id)
			}
		}
	}
	if payload.Products != nil {
		for _, entry := range *payload.Products {
			found := false
			for _, p := range s.products {
				if p.ID == *entry.ID {
					found = true
					break
				}
			}
			if !found {
				return notFound("products", *entry.ID)
			}
		}
	}
	return nil
}

func (s *memStore) CreateOrganization(ctx context.Context, payload models.OrganizationPayload) (*models.Organization, error) {
	if err := s.checkAggregateRefs(payload, true); err != nil {
		return nil, err
	}
	description := ""
	if payload.Description != nil {
		description = *payload.Description
	}
	o := memOrg{ID: s.id(), Name: *payload.Name, Description: description, NetworkID: *payload.Network}
	s.orgs = append(s.orgs, o)
	for _, districtID := range payload.DistrictSet() {
		s.odRows = append(s.odRows, memJoin{ID: s.id(), Ref: districtID, OrgID: o.ID})
	}
	if payload.Products != nil {
		for _, entry := range *payload.Products {
			s.poRows = append(s.poRows, memJoin{ID: s.id(), Ref: *entry.ID, OrgID: o.ID, Price: *entry.Price})
		}
	}
	return s.GetOrganization(ctx, o.ID)
}

func (s *memStore) UpdateOrganization(ctx context.Context, id int64, payload models.OrganizationPayload) (*models.Organization, error) {
	var target *memOrg
	for i := range s.orgs {
		if s.orgs[i].ID == id {
			target = &s.orgs[i]
			break
		}
	}
	if target == nil {
		return nil, notFound("organizations", id)
	}
	if err := s.checkAggregateRefs(payload, true); err != nil {
		return nil, err
	}
	if payload.Products != nil {
		s.poRows = dropJoins(s.poRows, func(j memJoin) bool { return j.OrgID == id })
		for _, entry := range *payload.Products {
			s.poRows = append(s.poRows, memJoin{ID: s.id(), Ref: *entry.ID, OrgID: id, Price: *entry.Price})
		}
	}
	if payload.Districts != nil {
		s.odRows = dropJoins(s.odRows, func(j memJoin) bool { return j.OrgID == id })
		for _, districtID := range payload.DistrictSet() {
			s.odRows = append(s.odRows, memJoin{ID: s.id(), Ref: districtID, OrgID: id})
		}
	}
	if payload.Name != nil {
		target.Name = *payload.Name
	}
	if payload.Description != nil {
		target.Description = *payload.Description
	}
	if payload.Network != nil {
		target.NetworkID = *payload.Network
	}
	return s.GetOrganization(ctx, id)
}

func (s *memStore) DeleteOrganization(ctx context.Context, id int64) error {
	for i, o := range s.orgs {
		if o.ID == id {
			s.orgs = append(s.orgs[:i:i], s.orgs[i+1:]...)
			s.odRows = dropJoins(s.odRows, func(j memJoin) bool { return j.OrgID == id })
			s.poRows = dropJoins(s.poRows, func(j memJoin) bool { return j.OrgID == id })
			return nil
		}
	}
	return notFound("organizations", id)
}
