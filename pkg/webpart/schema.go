package webpart

// DataVersion is the property format version reported to the host.
const DataVersion = "1.0"

// Field types understood by property editors.
const (
	FieldTextField = "TextField"
)

// Properties are the user-editable settings of the map.
type Properties struct {
	Description string `json:"description"`
}

// MaxDescriptionLength bounds the description in runes.
const MaxDescriptionLength = 1024

// Schema describes the property editor: pages of groups of fields.
type Schema struct {
	Pages []SchemaPage `json:"pages"`
}

// SchemaPage is one page of the property editor.
type SchemaPage struct {
	Header Header  `json:"header"`
	Groups []Group `json:"groups"`
}

// Header is the text at the top of a page.
type Header struct {
	Description string `json:"description"`
}

// Group is a labelled set of fields.
type Group struct {
	GroupName   string  `json:"groupName"`
	GroupFields []Field `json:"groupFields"`
}

// Field binds an editor control to a property.
type Field struct {
	Type           string `json:"type"`
	TargetProperty string `json:"targetProperty"`
	Label          string `json:"label"`
}

// DefaultSchema is the property editor of [GeoMap]: one text field bound
// to description.
func DefaultSchema() Schema {
	return Schema{Pages: []SchemaPage{{
		Header: Header{Description: "Configure the population map"},
		Groups: []Group{{
			GroupName: "Basic Settings",
			GroupFields: []Field{{
				Type:           FieldTextField,
				TargetProperty: "description",
				Label:          "Description Field",
			}},
		}},
	}}}
}

// Fields returns every field of the schema in page order.
func (s Schema) Fields() []Field {
	var out []Field
	for _, p := range s.Pages {
		for _, g := range p.Groups {
			out = append(out, g.GroupFields...)
		}
	}
	return out
}
