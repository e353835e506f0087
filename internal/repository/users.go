package repository

import (
	"fmt"
	"sort"

	"github.com/granjapro/granja/internal/domain"
	"github.com/granjapro/granja/pkg/docstore"
)

type identityDoc struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	PasswordDigest string `json:"passwordDigest"`
	Role           string `json:"role"`
	Active         bool   `json:"active"`
}

func (d identityDoc) toDomain() (domain.Identity, error) {
	role, err := domain.ParseRole(d.Role)
	if err != nil {
		return domain.Identity{}, corrupt(CollectionIdentities, d.ID, err)
	}
	id, err := domain.RestoreIdentity(d.ID, d.Name, d.PasswordDigest, role, d.Active)
	if err != nil {
		return domain.Identity{}, corrupt(CollectionIdentities, d.ID, err)
	}
	return id, nil
}

func identityToDoc(i domain.Identity) identityDoc {
	return identityDoc{
		ID:             i.ID,
		Name:           i.Name,
		PasswordDigest: i.PasswordDigest,
		Role:           string(i.Role),
		Active:         i.Active,
	}
}

// UserRepository is the credential store.
type UserRepository struct {
	store docstore.Store
}

func NewUserRepository(s docstore.Store) *UserRepository {
	return &UserRepository{store: s}
}

// FindByName looks an identity up by its exact name.
func (r *UserRepository) FindByName(name string) (domain.Identity, bool, error) {
	all, err := r.ListAll()
	if err != nil {
		return domain.Identity{}, false, err
	}
	for _, i := range all {
		if i.Name == name {
			return i, true, nil
		}
	}
	return domain.Identity{}, false, nil
}

func (r *UserRepository) FindByID(id string) (domain.Identity, bool, error) {
	doc, ok, err := lookup[identityDoc](r.store, CollectionIdentities, id)
	if err != nil || !ok {
		return domain.Identity{}, false, err
	}
	i, err := doc.toDomain()
	if err != nil {
		return domain.Identity{}, false, err
	}
	return i, true, nil
}

func (r *UserRepository) ExistsByName(name string) (bool, error) {
	_, ok, err := r.FindByName(name)
	return ok, err
}

// Insert stores a new identity and returns it with its assigned id.
func (r *UserRepository) Insert(i domain.Identity) (domain.Identity, error) {
	exists, err := r.ExistsByName(i.Name)
	if err != nil {
		return domain.Identity{}, err
	}
	if exists {
		return domain.Identity{}, fmt.Errorf("%w: %q", domain.ErrDuplicateName, i.Name)
	}
	if i.ID == "" {
		i.ID = newID()
	}
	if err := docstore.Put(r.store, CollectionIdentities, i.ID, identityToDoc(i)); err != nil {
		return domain.Identity{}, err
	}
	return i, nil
}

// Update replaces a stored identity. A rename onto another identity's name is rejected.
func (r *UserRepository) Update(i domain.Identity) error {
	if _, ok, err := r.FindByID(i.ID); err != nil {
		return err
	} else if !ok {
		return domain.NotFound("identity", i.ID)
	}
	other, ok, err := r.FindByName(i.Name)
	if err != nil {
		return err
	}
	if ok && other.ID != i.ID {
		return fmt.Errorf("%w: %q", domain.ErrDuplicateName, i.Name)
	}
	return docstore.Put(r.store, CollectionIdentities, i.ID, identityToDoc(i))
}

func (r *UserRepository) Delete(id string) error {
	if _, ok, err := r.FindByID(id); err != nil {
		return err
	} else if !ok {
		return domain.NotFound("identity", id)
	}
	return r.store.Delete(CollectionIdentities, id)
}

// ListAll returns every identity ordered by name.
func (r *UserRepository) ListAll() ([]domain.Identity, error) {
	docs, err := docstore.All[identityDoc](r.store, CollectionIdentities)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Identity, 0, len(docs))
	for _, d := range docs {
		i, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out, nil
}

// Count returns the number of stored identities.
func (r *UserRepository) Count() (int, error) {
	docs, err := r.store.List(CollectionIdentities)
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}
