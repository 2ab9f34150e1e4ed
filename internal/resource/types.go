package resource

// Field kinds recognized by the query engine.
const (
	KindText       = "text"
	KindNumeric    = "numeric"
	KindDate       = "date"
	KindDateTime   = "datetime"
	KindID         = "id"
	KindForeignKey = "foreign_key"
)

// Descriptor описывает ресурс в конфигурации: таблица, поля, связи
// и зависимые ресурсы (для integrity guard).
type Descriptor struct {
	Name           string           `yaml:"-"` // logical name, taken from the file name
	Table          string           `yaml:"table"`
	IDColumn       string           `yaml:"id_column"` // defaults to "id"
	DefaultSort    string           `yaml:"default_sort"`
	DefaultOrder   string           `yaml:"default_order"` // "asc" or "desc", defaults to "asc"
	AllowSelfEdges bool             `yaml:"allow_self_edges"`
	Fields         []FieldSpec      `yaml:"fields"`
	Relations      []RelationSpec   `yaml:"relations"`
	Dependents     []DependencyEdge `yaml:"dependents"`
}

// FieldSpec declares one column and what the engine may do with it.
type FieldSpec struct {
	Name       string `yaml:"name"`
	Column     string `yaml:"column"` // defaults to Name
	Kind       string `yaml:"kind"`
	Searchable bool   `yaml:"searchable"`
	Filterable bool   `yaml:"filterable"`
	Sortable   bool   `yaml:"sortable"`
}

// RelationSpec declares an embeddable summary relation (belongs_to shape:
// the FK lives in this resource and points at the target's id column).
type RelationSpec struct {
	Name       string   `yaml:"name"`
	Resource   string   `yaml:"resource"`
	JoinColumn string   `yaml:"join_column"`
	Summary    []string `yaml:"summary"` // columns embedded in the summary object

	// runtime ref, set by the linker
	_TargetRef *Descriptor `yaml:"-"`
}

// DependencyEdge declares that rows of Resource reference this descriptor's
// rows via Column. Nullable is informational: the guard blocks on any
// matching dependent row regardless.
type DependencyEdge struct {
	Resource string `yaml:"resource"`
	Column   string `yaml:"column"`
	Nullable bool   `yaml:"nullable"`
}

func (d *Descriptor) IDCol() string {
	if d.IDColumn != "" {
		return d.IDColumn
	}
	return "id"
}

// Field returns the spec for a field name, or nil.
func (d *Descriptor) Field(name string) *FieldSpec {
	for i := range d.Fields {
		if d.Fields[i].Name == name {
			return &d.Fields[i]
		}
	}
	return nil
}

func (f *FieldSpec) Col() string {
	if f.Column != "" {
		return f.Column
	}
	return f.Name
}

func (f *FieldSpec) IsDateKind() bool {
	return f.Kind == KindDate || f.Kind == KindDateTime
}

// SearchableTextFields returns fields participating in free-text search.
func (d *Descriptor) SearchableTextFields() []*FieldSpec {
	var out []*FieldSpec
	for i := range d.Fields {
		f := &d.Fields[i]
		if f.Searchable && f.Kind == KindText {
			out = append(out, f)
		}
	}
	return out
}

// DateFields returns fields of kind date or datetime.
func (d *Descriptor) DateFields() []*FieldSpec {
	var out []*FieldSpec
	for i := range d.Fields {
		if d.Fields[i].IsDateKind() {
			out = append(out, &d.Fields[i])
		}
	}
	return out
}

// Relation returns the relation spec by name, or nil.
func (d *Descriptor) Relation(name string) *RelationSpec {
	for i := range d.Relations {
		if d.Relations[i].Name == name {
			return &d.Relations[i]
		}
	}
	return nil
}

func (r *RelationSpec) GetTargetRef() *Descriptor {
	return r._TargetRef
}

func (r *RelationSpec) SetTargetRef(d *Descriptor) {
	r._TargetRef = d
}
