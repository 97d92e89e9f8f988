package domain

import "strings"

// Instrument is an exchange-listed security: Code is the exchange-assigned
// identifier, Name the display name.
type Instrument struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Market string `json:"market,omitempty"`
}

func NewInstrument(code, name, market string) Instrument {
	return Instrument{
		Code:   code,
		Name:   name,
		Market: market,
	}
}

func (i Instrument) IsValid() bool {
	return i.Code != "" && i.Name != ""
}

// NameContains reports whether keyword is a case-insensitive substring of
// the display name.
func (i Instrument) NameContains(keyword string) bool {
	return strings.Contains(strings.ToLower(i.Name), strings.ToLower(keyword))
}

// FindFirstByName returns the first instrument in listing order whose name
// contains keyword.
func FindFirstByName(listing []Instrument, keyword string) (Instrument, bool) {
	for _, inst := range listing {
		if inst.NameContains(keyword) {
			return inst, true
		}
	}
	return Instrument{}, false
}

// FindByCode returns the instrument with the exact exchange code.
func FindByCode(listing []Instrument, code string) (Instrument, bool) {
	for _, inst := range listing {
		if inst.Code == code {
			return inst, true
		}
	}
	return Instrument{}, false
}
