package catalog

// StoreQuery is the data-store form of a QuerySpec: a parameterized WHERE
// clause, a validated ORDER BY clause, and the page window.
type StoreQuery struct {
	Where   string
	Args    []any
	OrderBy string
	Limit   int
	Offset  int
}

// sortColumns maps the SortField enum onto real column names. BuildQuery only
// ever reads from this map, so no request-supplied string reaches the SQL text.
var sortColumns = map[SortField]string{
	SortID:              "id",
	SortName:            "name",
	SortPrice:           "price",
	SortDiscountedPrice: "discounted_price",
	SortSKU:             "sku",
	SortCreatedAt:       "created_at",
	SortUpdatedAt:       "updated_at",
}

// BuildQuery translates a normalized spec into a store query. All present
// predicates are ANDed; the search term is a single OR-group of
// case-insensitive substring matches over name, description, and sku.
// Read-only: raises no domain errors.
func BuildQuery(spec QuerySpec) StoreQuery {
	where := "1=1"
	var args []any

	if spec.Search != "" {
		where += " AND (name LIKE ? OR description LIKE ? OR sku LIKE ?)"
		pattern := "%" + spec.Search + "%"
		args = append(args, pattern, pattern, pattern)
	}
	if spec.MinPrice != nil {
		where += " AND price >= ?"
		args = append(args, *spec.MinPrice)
	}
	if spec.MaxPrice != nil {
		where += " AND price <= ?"
		args = append(args, *spec.MaxPrice)
	}

	col, ok := sortColumns[spec.Sort]
	if !ok {
		col = sortColumns[SortCreatedAt]
	}
	dir := "DESC"
	if spec.Order == OrderAsc {
		dir = "ASC"
	}

	// Secondary key on id gives a total order, so pages of a sort with
	// duplicate values neither drop nor repeat rows.
	orderBy := col + " " + dir
	if col != "id" {
		orderBy += ", id " + dir
	}

	return StoreQuery{
		Where:   where,
		Args:    args,
		OrderBy: orderBy,
		Limit:   spec.Limit,
		Offset:  spec.Offset(),
	}
}
