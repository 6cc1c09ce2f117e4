package address

import (
	"context"
	"strings"

	"github.com/angelmondragon/storefront/internal/backend"
	"github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/validate"
)

const maxFieldLen = 255

// Backend is the address slice of the REST client.
type Backend interface {
	ListAddresses(ctx context.Context) ([]backend.Address, error)
	CreateAddress(ctx context.Context, addr backend.Address) (*backend.Address, error)
	UpdateAddress(ctx context.Context, id int64, addr backend.Address) (*backend.Address, error)
	DeleteAddress(ctx context.Context, id int64) error
}

// Directory manages the user's saved shipping addresses. Nothing is
// applied locally before the backend confirms it.
type Directory interface {
	List(ctx context.Context) ([]backend.Address, error)
	Create(ctx context.Context, addr backend.Address) (*backend.Address, error)
	Update(ctx context.Context, id int64, addr backend.Address) (*backend.Address, error)
	Delete(ctx context.Context, id int64) error
}

type directory struct {
	api  Backend
	logg *logger.Logger
}

func NewDirectory(api Backend, logg *logger.Logger) Directory {
	return &directory{api: api, logg: logg}
}

func (d *directory) List(ctx context.Context) ([]backend.Address, error) {
	if d == nil || d.api == nil {
		return nil, errors.New(errors.CodeDependency, "address backend unavailable")
	}
	addrs, err := d.api.ListAddresses(ctx)
	if err != nil {
		return nil, err
	}
	if addrs == nil {
		addrs = []backend.Address{}
	}
	return addrs, nil
}

func (d *directory) Create(ctx context.Context, addr backend.Address) (*backend.Address, error) {
	if d == nil || d.api == nil {
		return nil, errors.New(errors.CodeDependency, "address backend unavailable")
	}
	addr = sanitize(addr)
	addr.ID = 0
	if err := validate.Struct(addr); err != nil {
		return nil, err
	}
	return d.api.CreateAddress(ctx, addr)
}

func (d *directory) Update(ctx context.Context, id int64, addr backend.Address) (*backend.Address, error) {
	if d == nil || d.api == nil {
		return nil, errors.New(errors.CodeDependency, "address backend unavailable")
	}
	if id <= 0 {
		return nil, errors.New(errors.CodeValidation, "address id is required")
	}
	addr = sanitize(addr)
	addr.ID = id
	if err := validate.Struct(addr); err != nil {
		return nil, err
	}
	return d.api.UpdateAddress(ctx, id, addr)
}

func (d *directory) Delete(ctx context.Context, id int64) error {
	if d == nil || d.api == nil {
		return errors.New(errors.CodeDependency, "address backend unavailable")
	}
	if id <= 0 {
		return errors.New(errors.CodeValidation, "address id is required")
	}
	if err := d.api.DeleteAddress(ctx, id); err != nil {
		return err
	}
	if d.logg != nil {
		d.logg.Info(d.logg.WithField(ctx, "address_id", id), "address deleted")
	}
	return nil
}

// DefaultSelection picks the first persisted address, or 0 when none.
func DefaultSelection(addrs []backend.Address) int64 {
	if len(addrs) > 0 && addrs[0].ID != 0 {
		return addrs[0].ID
	}
	return 0
}

// Display renders the one-line form shown when choosing an address.
func Display(a backend.Address) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{a.Street, a.City, a.State, a.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func sanitize(a backend.Address) backend.Address {
	a.Name = validate.SanitizeString(a.Name, maxFieldLen)
	a.LastName = validate.SanitizeString(a.LastName, maxFieldLen)
	a.PhoneNumber = validate.SanitizeString(a.PhoneNumber, maxFieldLen)
	a.Email = validate.SanitizeString(a.Email, maxFieldLen)
	a.Country = validate.SanitizeString(a.Country, maxFieldLen)
	a.Street = validate.SanitizeString(a.Street, maxFieldLen)
	a.City = validate.SanitizeString(a.City, maxFieldLen)
	a.State = validate.SanitizeString(a.State, maxFieldLen)
	a.ZipCode = validate.SanitizeString(a.ZipCode, maxFieldLen)
	return a
}
