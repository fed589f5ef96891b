package model

// FieldValue is one submitted (field, value) pair.
type FieldValue struct {
	Name  string
	Value any
}

// CategoryValues holds the submitted fields of one category in insertion order.
type CategoryValues struct {
	Category Category
	Fields   []FieldValue
}

// Batch is an ordered category -> (field -> value) mapping. Categories and
// fields keep the order in which they were added.
type Batch []CategoryValues

// Add appends a field to the batch, creating the category group on first use.
// Adding a field name twice to the same category replaces its value in place.
func (b *Batch) Add(category Category, name string, value any) *Batch {
	for i := range *b {
		group := &(*b)[i]
		if group.Category != category {
			continue
		}
		for j := range group.Fields {
			if group.Fields[j].Name == name {
				group.Fields[j].Value = value
				return b
			}
		}
		group.Fields = append(group.Fields, FieldValue{Name: name, Value: value})
		return b
	}
	*b = append(*b, CategoryValues{Category: category, Fields: []FieldValue{{Name: name, Value: value}}})
	return b
}

// Group returns the submitted fields for category and whether the category
// is present in the batch.
func (b Batch) Group(category Category) ([]FieldValue, bool) {
	for _, g := range b {
		if g.Category == category {
			return g.Fields, true
		}
	}
	return nil, false
}

// Len returns the total number of fields across all categories.
func (b Batch) Len() int {
	n := 0
	for _, g := range b {
		n += len(g.Fields)
	}
	return n
}
