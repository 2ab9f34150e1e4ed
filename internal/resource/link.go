package resource

import "fmt"

var knownKinds = map[string]bool{
	KindText:       true,
	KindNumeric:    true,
	KindDate:       true,
	KindDateTime:   true,
	KindID:         true,
	KindForeignKey: true,
}

// LinkResources resolves relation targets and validates every descriptor.
// Вызывается один раз после загрузки всех ресурсов.
func LinkResources() error {
	for name, desc := range Registry {
		if len(desc.Fields) == 0 {
			return fmt.Errorf("resource '%s' declares no fields", name)
		}
		if desc.Field(desc.IDCol()) == nil {
			return fmt.Errorf("resource '%s' has no field for id column '%s'", name, desc.IDCol())
		}
		for i := range desc.Fields {
			f := &desc.Fields[i]
			if f.Name == "" {
				return fmt.Errorf("resource '%s' has a field without a name", name)
			}
			if !knownKinds[f.Kind] {
				return fmt.Errorf("resource '%s' field '%s' has unknown kind '%s'", name, f.Name, f.Kind)
			}
		}

		if desc.DefaultSort == "" {
			desc.DefaultSort = desc.IDCol()
		}
		sortField := desc.Field(desc.DefaultSort)
		if sortField == nil || !sortField.Sortable {
			if desc.DefaultSort != desc.IDCol() {
				return fmt.Errorf("resource '%s' default_sort '%s' is not a sortable field", name, desc.DefaultSort)
			}
		}
		switch desc.DefaultOrder {
		case "":
			desc.DefaultOrder = "asc"
		case "asc", "desc":
		default:
			return fmt.Errorf("resource '%s' default_order '%s' must be asc or desc", name, desc.DefaultOrder)
		}

		for i := range desc.Relations {
			rel := &desc.Relations[i]
			target, ok := Registry[rel.Resource]
			if !ok {
				return fmt.Errorf("invalid relation: resource '%s' not found in '%s.%s'", rel.Resource, name, rel.Name)
			}
			rel.SetTargetRef(target)
			if desc.Field(rel.JoinColumn) == nil {
				return fmt.Errorf("relation '%s.%s' join column '%s' is not a declared field", name, rel.Name, rel.JoinColumn)
			}
			if len(rel.Summary) == 0 {
				rel.Summary = []string{target.IDCol()}
			}
			for _, col := range rel.Summary {
				if target.Field(col) == nil {
					return fmt.Errorf("relation '%s.%s' summary column '%s' not declared on '%s'", name, rel.Name, col, rel.Resource)
				}
			}
		}
	}
	return nil
}
