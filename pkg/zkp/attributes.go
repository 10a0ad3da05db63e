package zkp

import "math/big"

const (
	CreditScoreIndex = iota
	IncomeIndex
	ReportDateIndex

	AttributeCount
)

var attributeNames = [AttributeCount]string{
	CreditScoreIndex: "credit_score",
	IncomeIndex:      "income",
	ReportDateIndex:  "report_date",
}

// AttributeSet is the ordered tuple committed under a root. The order is part of
// the commitment and must not change.
type AttributeSet [AttributeCount]*big.Int

func NewAttributeSet(creditScore, income, reportDate *big.Int) AttributeSet {
	return AttributeSet{
		CreditScoreIndex: creditScore,
		IncomeIndex:      income,
		ReportDateIndex:  reportDate,
	}
}

func AttributesFromUint64(creditScore, income, reportDate uint64) AttributeSet {
	return NewAttributeSet(
		new(big.Int).SetUint64(creditScore),
		new(big.Int).SetUint64(income),
		new(big.Int).SetUint64(reportDate),
	)
}

func (a AttributeSet) Validate() error {
	for i, v := range a {
		if err := checkFieldElement(attributeNames[i], v); err != nil {
			return err
		}
	}
	return nil
}

func (a AttributeSet) CreditScore() *big.Int { return a[CreditScoreIndex] }
func (a AttributeSet) Income() *big.Int      { return a[IncomeIndex] }
func (a AttributeSet) ReportDate() *big.Int  { return a[ReportDateIndex] }

// Clone deep-copies every value.
func (a AttributeSet) Clone() AttributeSet {
	var out AttributeSet
	for i, v := range a {
		if v != nil {
			out[i] = new(big.Int).Set(v)
		}
	}
	return out
}

// Equal reports whether both sets hold the same values.
func (a AttributeSet) Equal(other AttributeSet) bool {
	for i := range a {
		if a[i] == nil || other[i] == nil {
			if a[i] != other[i] {
				return false
			}
			continue
		}
		if a[i].Cmp(other[i]) != 0 {
			return false
		}
	}
	return true
}
