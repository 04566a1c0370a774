// Package mapper holds generic helpers shared by persistence mappers.
package mapper

import "fmt"

// MapRows converts stored rows into entities. Nil rows and nil results are
// dropped. The first conversion error aborts and is tagged with the row key.
func MapRows[Row any, Entity any, Key any](
	rows []*Row,
	convert func(*Row) (*Entity, error),
	key func(*Row) Key,
) ([]*Entity, error) {
	out := make([]*Entity, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		entity, err := convert(row)
		if err != nil {
			return nil, fmt.Errorf("row %v: %w", key(row), err)
		}
		if entity != nil {
			out = append(out, entity)
		}
	}
	return out, nil
}
