package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Mechanic statuses.
const (
	MechanicActive  = "active"
	MechanicBlocked = "blocked"
)

var e164Re = regexp.MustCompile(`^\+[1-9]\d{7,14}$`)

// brazilianUFs is the set of valid federative unit codes.
var brazilianUFs = map[string]struct{}{
	"AC": {}, "AL": {}, "AP": {}, "AM": {}, "BA": {}, "CE": {}, "DF": {},
	"ES": {}, "GO": {}, "MA": {}, "MT": {}, "MS": {}, "MG": {}, "PA": {},
	"PB": {}, "PR": {}, "PE": {}, "PI": {}, "RJ": {}, "RN": {}, "RS": {},
	"RO": {}, "RR": {}, "SC": {}, "SP": {}, "SE": {}, "TO": {},
}

// Mechanic is a workshop contact record managed by admins.
type Mechanic struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	WhatsappPhoneE164 string    `json:"whatsapp_phone_e164"`
	City              string    `json:"city"`
	StateUF           string    `json:"state_uf"`
	Status            string    `json:"status"`
	Address           *string   `json:"address,omitempty"`
	Email             *string   `json:"email,omitempty"`
	ResponsibleName   *string   `json:"responsible_name,omitempty"`
	Categories        []string  `json:"categories"`
	Notes             *string   `json:"notes,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// MechanicUpdate carries a partial update; nil fields are left untouched.
type MechanicUpdate struct {
	Name              *string   `json:"name,omitempty"`
	WhatsappPhoneE164 *string   `json:"whatsapp_phone_e164,omitempty"`
	City              *string   `json:"city,omitempty"`
	StateUF           *string   `json:"state_uf,omitempty"`
	Status            *string   `json:"status,omitempty"`
	Address           *string   `json:"address,omitempty"`
	Email             *string   `json:"email,omitempty"`
	ResponsibleName   *string   `json:"responsible_name,omitempty"`
	Categories        *[]string `json:"categories,omitempty"`
	Notes             *string   `json:"notes,omitempty"`
}

// ValidMechanicStatus reports whether s is a known status.
func ValidMechanicStatus(s string) bool {
	return s == MechanicActive || s == MechanicBlocked
}

// NormalizePhoneE164 trims and validates an E.164 number.
func NormalizePhoneE164(v string) (string, error) {
	v = strings.TrimSpace(v)
	if !e164Re.MatchString(v) {
		return "", fmt.Errorf("%w: invalid E.164 phone number, example: +5511999999999", ErrInvalidInput)
	}
	return v, nil
}

// NormalizeUF upper-cases and validates a Brazilian UF code.
func NormalizeUF(v string) (string, error) {
	v = strings.ToUpper(strings.TrimSpace(v))
	if _, ok := brazilianUFs[v]; !ok {
		return "", fmt.Errorf("%w: state_uf must be a valid Brazilian UF", ErrInvalidInput)
	}
	return v, nil
}

// NormalizeCategories trims, lower-cases and deduplicates preserving order.
func NormalizeCategories(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, item := range in {
		s := strings.ToLower(strings.TrimSpace(item))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Normalize validates and canonicalizes a mechanic in place.
func (m *Mechanic) Normalize() error {
	m.Name = strings.TrimSpace(m.Name)
	if len(m.Name) < 2 || len(m.Name) > 120 {
		return fmt.Errorf("%w: name must be 2..120 characters", ErrInvalidInput)
	}
	phone, err := NormalizePhoneE164(m.WhatsappPhoneE164)
	if err != nil {
		return err
	}
	m.WhatsappPhoneE164 = phone

	m.City = strings.TrimSpace(m.City)
	if len(m.City) < 2 || len(m.City) > 80 {
		return fmt.Errorf("%w: city must be 2..80 characters", ErrInvalidInput)
	}
	uf, err := NormalizeUF(m.StateUF)
	if err != nil {
		return err
	}
	m.StateUF = uf

	if m.Status == "" {
		m.Status = MechanicActive
	}
	if !ValidMechanicStatus(m.Status) {
		return fmt.Errorf("%w: status must be active or blocked", ErrInvalidInput)
	}
	m.Categories = NormalizeCategories(m.Categories)
	return nil
}
