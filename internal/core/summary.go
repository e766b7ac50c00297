package core

// CategoryTotal is one category's share of a summary.
type CategoryTotal struct {
	Category Category
	Total    Money
	Count    int
}

// Summary holds simple sums over a filtered set of expenses.
type Summary struct {
	Total      Money
	Count      int
	ByCategory []CategoryTotal
}

// Summarize folds a list of expenses into totals per category, ordered by
// the fixed category order so output is deterministic.
func Summarize(expenses []Expense) Summary {
	byCat := map[Category]*CategoryTotal{}
	s := Summary{}
	for _, e := range expenses {
		s.Total.Cents += e.Amount.Cents
		s.Count++
		ct, ok := byCat[e.Category]
		if !ok {
			ct = &CategoryTotal{Category: e.Category}
			byCat[e.Category] = ct
		}
		ct.Total.Cents += e.Amount.Cents
		ct.Count++
	}
	for _, c := range Categories {
		if ct, ok := byCat[c]; ok {
			s.ByCategory = append(s.ByCategory, *ct)
		}
	}
	return s
}
