// Defines page property values and their schema-drift tolerant codec.

package notion

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/buger/jsonparser"
)

// PropertyType is the kind tag of a property.
type PropertyType string

// Property kinds.
const (
	PropertyTitle          PropertyType = "title"
	PropertyRichText       PropertyType = "rich_text"
	PropertyNumber         PropertyType = "number"
	PropertySelect         PropertyType = "select"
	PropertyMultiSelect    PropertyType = "multi_select"
	PropertyDate           PropertyType = "date"
	PropertyPeople         PropertyType = "people"
	PropertyFiles          PropertyType = "files"
	PropertyCheckbox       PropertyType = "checkbox"
	PropertyURL            PropertyType = "url"
	PropertyEmail          PropertyType = "email"
	PropertyPhoneNumber    PropertyType = "phone_number"
	PropertyFormula        PropertyType = "formula"
	PropertyRelation       PropertyType = "relation"
	PropertyRollup         PropertyType = "rollup"
	PropertyCreatedTime    PropertyType = "created_time"
	PropertyCreatedBy      PropertyType = "created_by"
	PropertyLastEditedTime PropertyType = "last_edited_time"
	PropertyLastEditedBy   PropertyType = "last_edited_by"
	PropertyStatus         PropertyType = "status"
	PropertyUniqueID       PropertyType = "unique_id"
)

// PropertyValue is a page property value, or a database property definition.
//
// Exactly one payload field matching Type is meaningful. When the payload could not be decoded
// for its kind, or the kind is unknown, Null is set and only ID, Name and Type are kept.
type PropertyValue struct {
	ID   string       `json:"id,omitempty"`
	Name string       `json:"name,omitempty"`
	Type PropertyType `json:"type"`
	Null bool         `json:"-"`

	Title          []RichText      `json:"title,omitempty"`
	RichText       []RichText      `json:"rich_text,omitempty"`
	Number         *float64        `json:"number,omitempty"`
	Select         *SelectOption   `json:"select,omitempty"`
	MultiSelect    []SelectOption  `json:"multi_select,omitempty"`
	Date           *DateValue      `json:"date,omitempty"`
	People         []User          `json:"people,omitempty"`
	Files          []FileObject    `json:"files,omitempty"`
	Checkbox       bool            `json:"checkbox,omitempty"`
	URL            *string         `json:"url,omitempty"`
	Email          *string         `json:"email,omitempty"`
	PhoneNumber    *string         `json:"phone_number,omitempty"`
	Formula        *FormulaValue   `json:"formula,omitempty"`
	Relation       []RelationValue `json:"relation,omitempty"`
	Rollup         *RollupValue    `json:"rollup,omitempty"`
	CreatedTime    *time.Time      `json:"created_time,omitempty"`
	CreatedBy      *User           `json:"created_by,omitempty"`
	LastEditedTime *time.Time      `json:"last_edited_time,omitempty"`
	LastEditedBy   *User           `json:"last_edited_by,omitempty"`
	Status         *SelectOption   `json:"status,omitempty"`
	UniqueID       *UniqueIDValue  `json:"unique_id,omitempty"`
}

// NullProperty returns the fallback variant for a property whose payload is not understood.
func NullProperty(id string, kind PropertyType) PropertyValue {
	return PropertyValue{ID: id, Type: kind, Null: true}
}

// TitleProperty returns a title value holding plain text.
func TitleProperty(s string) PropertyValue {
	return PropertyValue{Type: PropertyTitle, Title: []RichText{NewText(s)}}
}

// RichTextProperty returns a rich_text value holding plain text.
func RichTextProperty(s string) PropertyValue {
	return PropertyValue{Type: PropertyRichText, RichText: []RichText{NewText(s)}}
}

// CheckboxProperty returns a checkbox value.
func CheckboxProperty(b bool) PropertyValue {
	return PropertyValue{Type: PropertyCheckbox, Checkbox: b}
}

// propertyShape is one accepted encoding of a property payload.
type propertyShape struct {
	accepts []jsonparser.ValueType
	require string // for objects, a member that must be present
	decode  func(p *PropertyValue, raw []byte) error
}

// into returns a shape decoding the payload straight into the field returned by field.
func into(field func(p *PropertyValue) any, accepts ...jsonparser.ValueType) propertyShape {
	return propertyShape{
		accepts: accepts,
		decode: func(p *PropertyValue, raw []byte) error {
			return json.Unmarshal(raw, field(p))
		},
	}
}

func (s propertyShape) requiring(key string) propertyShape {
	s.require = key
	return s
}

func (s propertyShape) try(p *PropertyValue, raw []byte, typ jsonparser.ValueType) error {
	if !slices.Contains(s.accepts, typ) {
		return shapeError("got %s", typ)
	}
	if typ == jsonparser.Object && s.require != "" && !hasMember(raw, s.require) {
		return shapeError("object without %q", s.require)
	}
	return s.decode(p, raw)
}

const (
	jsonArray  = jsonparser.Array
	jsonObject = jsonparser.Object
	jsonString = jsonparser.String
	jsonNumber = jsonparser.Number
	jsonBool   = jsonparser.Boolean
	jsonNull   = jsonparser.Null
)

// propertyShapes lists, per kind, the payload shapes tried in order. The live value shape comes
// first; alternates cover shapes seen in database schemas.
var propertyShapes = map[PropertyType][]propertyShape{
	PropertyTitle:    {into(func(p *PropertyValue) any { return &p.Title }, jsonArray, jsonNull)},
	PropertyRichText: {into(func(p *PropertyValue) any { return &p.RichText }, jsonArray, jsonNull)},
	PropertyNumber:   {into(func(p *PropertyValue) any { return &p.Number }, jsonNumber, jsonNull)},
	PropertySelect:   {into(func(p *PropertyValue) any { return &p.Select }, jsonObject, jsonNull).requiring("name")},
	PropertyStatus:   {into(func(p *PropertyValue) any { return &p.Status }, jsonObject, jsonNull).requiring("name")},
	PropertyMultiSelect: {
		into(func(p *PropertyValue) any { return &p.MultiSelect }, jsonArray, jsonNull),
		{
			accepts: []jsonparser.ValueType{jsonObject},
			require: "options",
			decode: func(p *PropertyValue, raw []byte) error {
				var schema struct {
					Options []SelectOption `json:"options"`
				}
				if err := json.Unmarshal(raw, &schema); err != nil {
					return err
				}
				if schema.Options == nil {
					schema.Options = []SelectOption{}
				}
				p.MultiSelect = schema.Options
				return nil
			},
		},
	},
	PropertyDate:           {into(func(p *PropertyValue) any { return &p.Date }, jsonObject, jsonNull).requiring("start")},
	PropertyPeople:         {into(func(p *PropertyValue) any { return &p.People }, jsonArray, jsonNull)},
	PropertyFiles:          {into(func(p *PropertyValue) any { return &p.Files }, jsonArray, jsonNull)},
	PropertyCheckbox:       {into(func(p *PropertyValue) any { return &p.Checkbox }, jsonBool)},
	PropertyURL:            {into(func(p *PropertyValue) any { return &p.URL }, jsonString, jsonNull)},
	PropertyEmail:          {into(func(p *PropertyValue) any { return &p.Email }, jsonString, jsonNull)},
	PropertyPhoneNumber:    {into(func(p *PropertyValue) any { return &p.PhoneNumber }, jsonString, jsonNull)},
	PropertyFormula:        {into(func(p *PropertyValue) any { return &p.Formula }, jsonObject).requiring("type")},
	PropertyRelation:       {into(func(p *PropertyValue) any { return &p.Relation }, jsonArray, jsonNull)},
	PropertyRollup:         {into(func(p *PropertyValue) any { return &p.Rollup }, jsonObject).requiring("type")},
	PropertyCreatedTime:    {into(func(p *PropertyValue) any { return &p.CreatedTime }, jsonString)},
	PropertyCreatedBy:      {into(func(p *PropertyValue) any { return &p.CreatedBy }, jsonObject).requiring("id")},
	PropertyLastEditedTime: {into(func(p *PropertyValue) any { return &p.LastEditedTime }, jsonString)},
	PropertyLastEditedBy:   {into(func(p *PropertyValue) any { return &p.LastEditedBy }, jsonObject).requiring("id")},
	PropertyUniqueID:       {into(func(p *PropertyValue) any { return &p.UniqueID }, jsonObject).requiring("number")},
}

// UnmarshalJSON decodes the envelope, then the payload named by the type tag.
//
// A payload that no known shape accepts yields a null variant; it is never an error.
func (p *PropertyValue) UnmarshalJSON(data []byte) error {
	var env struct {
		ID   string       `json:"id"`
		Name string       `json:"name"`
		Type PropertyType `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("failed to decode property: %w", err)
	}
	*p = PropertyValue{ID: env.ID, Name: env.Name, Type: env.Type, Null: true}

	shapes, known := propertyShapes[env.Type]
	if !known {
		slog.Debug("notion: unknown property kind", "id", env.ID, "kind", env.Type)
		return nil
	}
	raw, typ, ok := member(data, string(env.Type))
	if !ok {
		slog.Debug("notion: property without payload", "id", env.ID, "kind", env.Type)
		return nil
	}
	var lastErr error
	for _, s := range shapes {
		cand := PropertyValue{ID: env.ID, Name: env.Name, Type: env.Type}
		if lastErr = s.try(&cand, raw, typ); lastErr == nil {
			*p = cand
			return nil
		}
	}
	slog.Debug("notion: property payload degraded to null", "id", env.ID, "kind", env.Type, "err", lastErr)
	return nil
}

// MarshalJSON emits the envelope and the payload of the kind. Null variants emit no payload.
func (p PropertyValue) MarshalJSON() ([]byte, error) {
	env := struct {
		ID   string       `json:"id,omitempty"`
		Name string       `json:"name,omitempty"`
		Type PropertyType `json:"type"`
	}{p.ID, p.Name, p.Type}
	out, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}
	if p.Null {
		return out, nil
	}
	payload, ok := p.payload()
	if !ok {
		return out, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s property: %w", p.Type, err)
	}
	return appendMember(out, string(p.Type), raw), nil
}

func (p *PropertyValue) payload() (any, bool) {
	switch p.Type {
	case PropertyTitle:
		return p.Title, true
	case PropertyRichText:
		return p.RichText, true
	case PropertyNumber:
		return p.Number, true
	case PropertySelect:
		return p.Select, true
	case PropertyMultiSelect:
		return p.MultiSelect, true
	case PropertyDate:
		return p.Date, true
	case PropertyPeople:
		return p.People, true
	case PropertyFiles:
		return p.Files, true
	case PropertyCheckbox:
		return p.Checkbox, true
	case PropertyURL:
		return p.URL, true
	case PropertyEmail:
		return p.Email, true
	case PropertyPhoneNumber:
		return p.PhoneNumber, true
	case PropertyFormula:
		return p.Formula, true
	case PropertyRelation:
		return p.Relation, true
	case PropertyRollup:
		return p.Rollup, true
	case PropertyCreatedTime:
		return p.CreatedTime, true
	case PropertyCreatedBy:
		return p.CreatedBy, true
	case PropertyLastEditedTime:
		return p.LastEditedTime, true
	case PropertyLastEditedBy:
		return p.LastEditedBy, true
	case PropertyStatus:
		return p.Status, true
	case PropertyUniqueID:
		return p.UniqueID, true
	default:
		return nil, false
	}
}
