package validation

import (
	"math"
	"net/mail"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ogurasousui/company-lifecycle/internal/core/company"
)

const (
	maxTextLength   = 255
	maxCodeLength   = 32
	taxNumberLength = 10
)

// maxLengths は companies テーブルの列幅です。
var maxLengths = []struct {
	field string
	value func(company.Fields) string
	max   int
}{
	{"email", func(f company.Fields) string { return f.Email }, maxTextLength},
	{"shortName", func(f company.Fields) string { return f.ShortName }, maxTextLength},
	{"longName", func(f company.Fields) string { return f.LongName }, maxTextLength},
	{"country", func(f company.Fields) string { return f.Country }, maxTextLength},
	{"city", func(f company.Fields) string { return f.City }, maxTextLength},
	{"street", func(f company.Fields) string { return f.Street }, maxTextLength},
	{"postalCode", func(f company.Fields) string { return f.PostalCode }, maxCodeLength},
	{"buildingNumber", func(f company.Fields) string { return f.BuildingNumber }, maxCodeLength},
}

// Violations はフィールド名から違反コードへの対応です。
type Violations map[string]string

// Empty は違反が無い場合に true を返します。
func (v Violations) Empty() bool { return len(v) == 0 }

// Error は入力検証エラーです。
type Error struct {
	Violations Violations
}

func (e *Error) Error() string {
	fields := make([]string, 0, len(e.Violations))
	for field := range e.Violations {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+e.Violations[field])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// ValidateCompany は会社属性を検証し、違反があれば *Error を返します。
func ValidateCompany(f company.Fields) error {
	v := Violations{}

	required(v, "email", f.Email)
	required(v, "shortName", f.ShortName)
	required(v, "longName", f.LongName)
	required(v, "taxNumber", f.TaxNumber)
	required(v, "country", f.Country)
	required(v, "city", f.City)
	required(v, "postalCode", f.PostalCode)
	required(v, "street", f.Street)
	required(v, "buildingNumber", f.BuildingNumber)

	if _, ok := v["email"]; !ok && !isEmail(f.Email) {
		v["email"] = "invalid_email"
	}
	for _, l := range maxLengths {
		if utf8.RuneCountInString(l.value(f)) > l.max {
			v[l.field] = "too_long"
		}
	}
	if _, ok := v["taxNumber"]; !ok && utf8.RuneCountInString(f.TaxNumber) != taxNumberLength {
		v["taxNumber"] = "invalid_length"
	}
	if f.ApartmentNumber != nil {
		switch n := *f.ApartmentNumber; {
		case n <= 0:
			v["apartmentNumber"] = "must_be_positive"
		case n > math.MaxInt32:
			v["apartmentNumber"] = "too_large"
		}
	}

	if v.Empty() {
		return nil
	}
	return &Error{Violations: v}
}

func required(v Violations, field, value string) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

// isEmail は表示名や山括弧を含まない素のアドレスのみを受け付けます。
func isEmail(value string) bool {
	addr, err := mail.ParseAddress(value)
	if err != nil {
		return false
	}
	return addr.Name == "" && addr.Address == value && strings.Contains(addr.Address[strings.LastIndex(addr.Address, "@"):], ".")
}
