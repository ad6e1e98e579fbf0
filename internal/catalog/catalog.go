package catalog

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Category groups services and staff specialties.
type Category string

const (
	CategoryHair        Category = "hair"
	CategoryNails       Category = "nails"
	CategoryHairRemoval Category = "hair-removal"
	CategoryLashes      Category = "lashes"
)

// Categories lists every known category in display order.
func Categories() []Category {
	return []Category{CategoryHair, CategoryNails, CategoryHairRemoval, CategoryLashes}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	return slices.Contains(Categories(), c)
}

// Service is a bookable salon service.
type Service struct {
	ID              string   `json:"id" toml:"id"`
	Name            string   `json:"name" toml:"name"`
	Category        Category `json:"category" toml:"category"`
	DurationMinutes int      `json:"duration_minutes" toml:"duration_minutes"`
	Price           float64  `json:"price" toml:"price"`
	Description     string   `json:"description" toml:"description"`
}

// WorkingHours is a daily time-of-day window in HH:MM form.
type WorkingHours struct {
	Start string `json:"start" toml:"start"`
	End   string `json:"end" toml:"end"`
}

// Minutes returns start and end as minute-of-day offsets.
func (h WorkingHours) Minutes() (start, end int, err error) {
	if start, err = ParseClock(h.Start); err != nil {
		return 0, 0, err
	}
	if end, err = ParseClock(h.End); err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// Staff is a salon professional and their weekly pattern.
type Staff struct {
	ID               string       `json:"id" toml:"id"`
	Name             string       `json:"name" toml:"name"`
	Specialties      []Category   `json:"specialties" toml:"specialties"`
	WorkingHours     WorkingHours `json:"working_hours" toml:"working_hours"`
	WorkingDays      []int        `json:"working_days" toml:"working_days"`
	CalendarIdentity string       `json:"calendar_identity,omitempty" toml:"calendar_identity"`
}

// WorksOn reports whether the staff member works on the given weekday.
func (s Staff) WorksOn(day time.Weekday) bool {
	return slices.Contains(s.WorkingDays, int(day))
}

// HasSpecialty reports whether the staff member performs services of cat.
func (s Staff) HasSpecialty(cat Category) bool {
	return slices.Contains(s.Specialties, cat)
}

// Clone returns a deep copy so snapshots never share slices with the registry.
func (s Staff) Clone() Staff {
	s.Specialties = slices.Clone(s.Specialties)
	s.WorkingDays = slices.Clone(s.WorkingDays)
	return s
}

// Product is a cart item.
type Product struct {
	ID          string  `json:"id" toml:"id"`
	Name        string  `json:"name" toml:"name"`
	Price       float64 `json:"price" toml:"price"`
	Image       string  `json:"image,omitempty" toml:"image"`
	Description string  `json:"description" toml:"description"`
	Category    string  `json:"category" toml:"category"`
}

// Registry is the read-only reference catalog.
type Registry struct {
	services []Service
	staff    []Staff
	products []Product

	serviceByID map[string]Service
	staffByID   map[string]Staff
	productByID map[string]Product
}

// NewRegistry validates and indexes the given reference data.
func NewRegistry(services []Service, staff []Staff, products []Product) (*Registry, error) {
	r := &Registry{
		serviceByID: make(map[string]Service, len(services)),
		staffByID:   make(map[string]Staff, len(staff)),
		productByID: make(map[string]Product, len(products)),
	}
	for _, svc := range services {
		if err := validateService(svc); err != nil {
			return nil, err
		}
		if _, dup := r.serviceByID[svc.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate service id %q", svc.ID)
		}
		r.serviceByID[svc.ID] = svc
		r.services = append(r.services, svc)
	}
	for _, member := range staff {
		if err := validateStaff(member); err != nil {
			return nil, err
		}
		if _, dup := r.staffByID[member.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate staff id %q", member.ID)
		}
		member = member.Clone()
		r.staffByID[member.ID] = member
		r.staff = append(r.staff, member)
	}
	for _, p := range products {
		if strings.TrimSpace(p.ID) == "" {
			return nil, fmt.Errorf("catalog: product %q missing id", p.Name)
		}
		if p.Price < 0 {
			return nil, fmt.Errorf("catalog: product %q has negative price", p.ID)
		}
		if _, dup := r.productByID[p.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate product id %q", p.ID)
		}
		r.productByID[p.ID] = p
		r.products = append(r.products, p)
	}
	return r, nil
}

func (r *Registry) Services() []Service {
	return slices.Clone(r.services)
}

func (r *Registry) Service(id string) (Service, bool) {
	svc, ok := r.serviceByID[id]
	return svc, ok
}

func (r *Registry) ServicesByCategory(cat Category) []Service {
	var out []Service
	for _, svc := range r.services {
		if svc.Category == cat {
			out = append(out, svc)
		}
	}
	return out
}

func (r *Registry) StaffMembers() []Staff {
	out := make([]Staff, 0, len(r.staff))
	for _, member := range r.staff {
		out = append(out, member.Clone())
	}
	return out
}

// StaffMember returns a copy of the staff record for id.
func (r *Registry) StaffMember(id string) (Staff, bool) {
	member, ok := r.staffByID[id]
	if !ok {
		return Staff{}, false
	}
	return member.Clone(), true
}

func (r *Registry) StaffBySpecialty(cat Category) []Staff {
	var out []Staff
	for _, member := range r.staff {
		if member.HasSpecialty(cat) {
			out = append(out, member.Clone())
		}
	}
	return out
}

func (r *Registry) Products() []Product {
	return slices.Clone(r.products)
}

func (r *Registry) Product(id string) (Product, bool) {
	p, ok := r.productByID[id]
	return p, ok
}

func validateService(svc Service) error {
	switch {
	case strings.TrimSpace(svc.ID) == "":
		return fmt.Errorf("catalog: service %q missing id", svc.Name)
	case !svc.Category.Valid():
		return fmt.Errorf("catalog: service %q has unknown category %q", svc.ID, svc.Category)
	case svc.DurationMinutes <= 0:
		return fmt.Errorf("catalog: service %q needs a positive duration", svc.ID)
	case svc.Price < 0:
		return fmt.Errorf("catalog: service %q has negative price", svc.ID)
	}
	return nil
}

func validateStaff(member Staff) error {
	if strings.TrimSpace(member.ID) == "" {
		return fmt.Errorf("catalog: staff %q missing id", member.Name)
	}
	if len(member.Specialties) == 0 {
		return fmt.Errorf("catalog: staff %q has no specialties", member.ID)
	}
	for _, cat := range member.Specialties {
		if !cat.Valid() {
			return fmt.Errorf("catalog: staff %q has unknown specialty %q", member.ID, cat)
		}
	}
	for _, day := range member.WorkingDays {
		if day < 0 || day > 6 {
			return fmt.Errorf("catalog: staff %q has invalid working day %d", member.ID, day)
		}
	}
	start, end, err := member.WorkingHours.Minutes()
	if err != nil {
		return fmt.Errorf("catalog: staff %q working hours: %w", member.ID, err)
	}
	if start >= end {
		return fmt.Errorf("catalog: staff %q working hours end before they start", member.ID)
	}
	return nil
}

// ParseClock converts an HH:MM string to a minute-of-day offset.
func ParseClock(value string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok || len(hh) != 2 || len(mm) != 2 {
		return 0, fmt.Errorf("catalog: invalid clock %q", value)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("catalog: invalid hour in %q", value)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("catalog: invalid minute in %q", value)
	}
	return h*60 + m, nil
}

// FormatClock renders a minute-of-day offset as HH:MM.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// FormatPrice renders an amount in reais with two decimals and a comma
// separator, e.g. "80,00".
func FormatPrice(price float64) string {
	return strings.Replace(strconv.FormatFloat(price, 'f', 2, 64), ".", ",", 1)
}
