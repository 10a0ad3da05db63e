package zkp

import (
	"fmt"
	"math/big"
	"strings"
)

// Operator is the comparison applied to the credit score. Codes are part of the
// public signals and must stay stable.
type Operator uint8

const (
	EQ Operator = iota
	NEQ
	GT
	GTE
	LT
	LTE

	operatorCount
)

var operatorNames = [operatorCount]string{
	EQ:  "EQ",
	NEQ: "NEQ",
	GT:  "GT",
	GTE: "GTE",
	LT:  "LT",
	LTE: "LTE",
}

var operatorSymbols = map[string]Operator{
	"==": EQ,
	"!=": NEQ,
	">":  GT,
	">=": GTE,
	"<":  LT,
	"<=": LTE,
}

// ParseOperator maps a numeric code to an Operator. Unknown codes are an encoding
// error; there is no default operator.
func ParseOperator(code uint64) (Operator, error) {
	if code >= uint64(operatorCount) {
		return 0, encodingError("operator", "unknown operator code %d", code)
	}
	return Operator(code), nil
}

// ParseOperatorName accepts EQ..LTE in any case, or the symbolic forms.
func ParseOperatorName(name string) (Operator, error) {
	name = strings.TrimSpace(name)
	if op, ok := operatorSymbols[name]; ok {
		return op, nil
	}
	for i, n := range operatorNames {
		if strings.EqualFold(n, name) {
			return Operator(i), nil
		}
	}
	return 0, encodingError("operator", "unknown operator %q", name)
}

func (o Operator) Valid() bool { return o < operatorCount }

func (o Operator) String() string {
	if !o.Valid() {
		return fmt.Sprintf("Operator(%d)", uint8(o))
	}
	return operatorNames[o]
}

// Compare evaluates value <o> threshold. It panics on an invalid operator, which
// Validate rules out.
func (o Operator) Compare(value, threshold *big.Int) bool {
	c := value.Cmp(threshold)
	switch o {
	case EQ:
		return c == 0
	case NEQ:
		return c != 0
	case GT:
		return c > 0
	case GTE:
		return c >= 0
	case LT:
		return c < 0
	case LTE:
		return c <= 0
	}
	panic(fmt.Sprintf("zkp: compare with invalid operator %d", uint8(o)))
}

// Predicate is a public condition over the committed credit score.
type Predicate struct {
	Operator  Operator
	Threshold *big.Int
}

func NewPredicate(op Operator, threshold int64) Predicate {
	return Predicate{Operator: op, Threshold: big.NewInt(threshold)}
}

func (p Predicate) Validate() error {
	if !p.Operator.Valid() {
		return encodingError("operator", "unknown operator code %d", uint8(p.Operator))
	}
	return checkFieldElement("threshold", p.Threshold)
}

// Holds reports whether value satisfies the predicate. p must be valid.
func (p Predicate) Holds(value *big.Int) bool {
	return p.Operator.Compare(value, p.Threshold)
}

func (p Predicate) String() string {
	return fmt.Sprintf("%s %s", p.Operator, p.Threshold)
}
