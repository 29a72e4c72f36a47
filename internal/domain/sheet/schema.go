package sheet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/okian/contestboard/internal/domain/model"
)

// ErrMissingColumns is returned by Bind when known columns are absent from
// the header row.
var ErrMissingColumns = errors.New("missing contest columns")

// Columns names the exact header strings of the known contest columns.
// Matching is case- and whitespace-sensitive.
type Columns struct {
	StaffName                   string `koanf:"staff_name"`
	CompanyName                 string `koanf:"company_name"`
	Branch                      string `koanf:"branch"`
	Outstanding                 string `koanf:"outstanding"`
	DomesticBusinessTarget      string `koanf:"domestic_business_target"`
	InternationalBusinessTarget string `koanf:"international_business_target"`
	DomesticFreshTarget         string `koanf:"domestic_fresh_target"`
	InternationalFreshTarget    string `koanf:"international_fresh_target"`
	BusinessAchievement         string `koanf:"business_achievement"`
	FreshCustomerAchievement    string `koanf:"fresh_customer_achievement"`
}

// DefaultColumns returns the headers used by the published contest sheet.
func DefaultColumns() Columns {
	return Columns{
		StaffName:                   "STAFF NAME",
		CompanyName:                 "COMPANY NAME",
		Branch:                      "BRANCH",
		Outstanding:                 "OS AS ON 30.06.2025",
		DomesticBusinessTarget:      "Domestic Trip contest target",
		InternationalBusinessTarget: "Foreign trip contest Target",
		DomesticFreshTarget:         "Domestic Trip fresh customer target",
		InternationalFreshTarget:    "Foreign trip fresh customer target",
		BusinessAchievement:         "Contest Total NET",
		FreshCustomerAchievement:    "FRESH CUSTOMER ACH JULY",
	}
}

func (c Columns) names() []string {
	return []string{
		c.StaffName, c.CompanyName, c.Branch, c.Outstanding,
		c.DomesticBusinessTarget, c.InternationalBusinessTarget,
		c.DomesticFreshTarget, c.InternationalFreshTarget,
		c.BusinessAchievement, c.FreshCustomerAchievement,
	}
}

// Schema maps records onto model.Employee using a validated column set.
type Schema struct {
	cols    Columns
	missing []string
}

// Bind checks headers against cols. When strict is true, any absent column
// fails with ErrMissingColumns. Otherwise the schema is returned along with
// the same error so callers can log it; absent columns then read as "".
func Bind(headers []string, cols Columns, strict bool) (Schema, error) {
	present := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		present[h] = struct{}{}
	}
	var missing []string
	for _, name := range cols.names() {
		if _, ok := present[name]; !ok {
			missing = append(missing, name)
		}
	}
	s := Schema{cols: cols, missing: missing}
	if len(missing) == 0 {
		return s, nil
	}
	err := fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	if strict {
		return Schema{}, err
	}
	return s, err
}

// Missing returns the column names absent from the bound header row.
func (s Schema) Missing() []string {
	return append([]string(nil), s.missing...)
}

// Employee converts one record.
func (s Schema) Employee(r Record) model.Employee {
	return model.Employee{
		StaffName:                   r.Get(s.cols.StaffName),
		CompanyName:                 r.Get(s.cols.CompanyName),
		Branch:                      r.Get(s.cols.Branch),
		Outstanding:                 r.Get(s.cols.Outstanding),
		DomesticBusinessTarget:      r.Get(s.cols.DomesticBusinessTarget),
		InternationalBusinessTarget: r.Get(s.cols.InternationalBusinessTarget),
		DomesticFreshTarget:         r.Get(s.cols.DomesticFreshTarget),
		InternationalFreshTarget:    r.Get(s.cols.InternationalFreshTarget),
		BusinessAchievement:         r.Get(s.cols.BusinessAchievement),
		FreshCustomerAchievement:    r.Get(s.cols.FreshCustomerAchievement),
	}
}

// Employees converts records in order.
func (s Schema) Employees(records []Record) []model.Employee {
	out := make([]model.Employee, len(records))
	for i, r := range records {
		out[i] = s.Employee(r)
	}
	return out
}
