package docstore

type FilterOp string

const (
	OpEq FilterOp = "=="
	OpIn FilterOp = "in"
)

type Filter struct {
	Field  string
	Op     FilterOp
	Values []any
}

type Order struct {
	Field string
	Desc  bool
}

// Query is built fluently: From(kind).Where(...).WhereIn(...).OrderBy(...).Limit(n).
type Query struct {
	Kind    Kind
	Filters []Filter
	Orders  []Order
	Max     int
}

func From(kind Kind) Query {
	return Query{Kind: kind}
}

func (q Query) Where(field string, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Op: OpEq, Values: []any{value}})
	return q
}

// WhereIn matches documents whose field equals any of values. No values matches nothing.
func (q Query) WhereIn(field string, values ...any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Op: OpIn, Values: values})
	return q
}

func (q Query) OrderBy(field string) Query {
	q.Orders = append(append([]Order(nil), q.Orders...), Order{Field: field})
	return q
}

func (q Query) OrderByDesc(field string) Query {
	q.Orders = append(append([]Order(nil), q.Orders...), Order{Field: field, Desc: true})
	return q
}

func (q Query) Limit(n int) Query {
	q.Max = n
	return q
}

// Empty reports whether an in-filter with no values makes the query unsatisfiable.
func (q Query) Empty() bool {
	for _, f := range q.Filters {
		if f.Op == OpIn && len(f.Values) == 0 {
			return true
		}
	}
	return false
}
