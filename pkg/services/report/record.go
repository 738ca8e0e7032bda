package report

import (
	"bytes"

	"github.com/shopspring/decimal"
)

// Record is one upstream transaction line. Only the monetary fields are
// interpreted; the rest of the payload is ignored.
type Record struct {
	TotalBayar      Money  `json:"total_bayar"`
	TotalPembayaran Money  `json:"total_pembayaran"`
	Tanggal         string `json:"tanggal,omitempty"`
}

// Amount returns the monetary field the given report type sums: product
// reports pay into total_bayar, treatment reports into total_pembayaran.
func (r Record) Amount(typ Type) decimal.Decimal {
	if typ == Treatments {
		return r.TotalPembayaran.Decimal
	}
	return r.TotalBayar.Decimal
}

// Money decodes upstream amounts, which arrive either as JSON numbers or
// as numeric strings. Malformed or missing values decode as zero rather
// than failing the record.
type Money struct {
	decimal.Decimal
}

func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(data, `"`))
	if s == "" || s == "null" {
		m.Decimal = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		m.Decimal = decimal.Zero
		return nil
	}
	m.Decimal = d
	return nil
}
