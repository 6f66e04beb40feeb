// Formats property values for display.

package render

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/adamwulf/hunch-sub000/internal/notion"
)

// PropertyText returns the display text of a property value.
//
// ok is false when the value should not be displayed: null variants and empty values. assets
// replaces file URLs with local paths, as for media blocks.
func PropertyText(p *notion.PropertyValue, assets map[string]string) (text string, ok bool) {
	if p.Null {
		return "", false
	}
	switch p.Type {
	case notion.PropertyTitle:
		text = notion.PlainText(p.Title)
	case notion.PropertyRichText:
		text = notion.PlainText(p.RichText)
	case notion.PropertyNumber:
		if p.Number != nil {
			text = formatNumber(*p.Number)
		}
	case notion.PropertySelect:
		if p.Select != nil {
			text = p.Select.Name
		}
	case notion.PropertyStatus:
		if p.Status != nil {
			text = p.Status.Name
		}
	case notion.PropertyMultiSelect:
		names := make([]string, len(p.MultiSelect))
		for i, o := range p.MultiSelect {
			names[i] = o.Name
		}
		text = strings.Join(names, ", ")
	case notion.PropertyDate:
		text = formatDate(p.Date)
	case notion.PropertyPeople:
		names := make([]string, len(p.People))
		for i := range p.People {
			names[i] = p.People[i].DisplayName()
		}
		text = strings.Join(names, ", ")
	case notion.PropertyFiles:
		links := make([]string, 0, len(p.Files))
		for i := range p.Files {
			f := &p.Files[i]
			src := f.URL()
			if local, ok := assets[src]; ok {
				src = local
			}
			name := f.Name
			if name == "" {
				name = fileName(f.URL())
			}
			links = append(links, "["+name+"]("+src+")")
		}
		text = strings.Join(links, ", ")
	case notion.PropertyCheckbox:
		text = yesNo(p.Checkbox)
	case notion.PropertyURL:
		text = deref(p.URL)
	case notion.PropertyEmail:
		text = deref(p.Email)
	case notion.PropertyPhoneNumber:
		text = deref(p.PhoneNumber)
	case notion.PropertyFormula:
		text = formatFormula(p.Formula)
	case notion.PropertyRelation:
		ids := make([]string, len(p.Relation))
		for i, r := range p.Relation {
			ids[i] = r.ID
		}
		text = strings.Join(ids, ", ")
	case notion.PropertyRollup:
		text = formatRollup(p.Rollup, assets)
	case notion.PropertyCreatedTime:
		text = formatTime(p.CreatedTime)
	case notion.PropertyLastEditedTime:
		text = formatTime(p.LastEditedTime)
	case notion.PropertyCreatedBy:
		text = p.CreatedBy.DisplayName()
	case notion.PropertyLastEditedBy:
		text = p.LastEditedBy.DisplayName()
	case notion.PropertyUniqueID:
		if u := p.UniqueID; u != nil {
			text = strconv.Itoa(u.Number)
			if u.Prefix != nil && *u.Prefix != "" {
				text = *u.Prefix + "-" + text
			}
		}
	}
	return text, text != ""
}

// sortedProperties returns the names of props in lexicographic order.
func sortedProperties(props map[string]notion.PropertyValue) []string {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatDate(d *notion.DateValue) string {
	if d == nil || d.Start == "" {
		return ""
	}
	if d.End != nil && *d.End != "" {
		return d.Start + "/" + *d.End
	}
	return d.Start
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatFormula(f *notion.FormulaValue) string {
	if f == nil {
		return ""
	}
	switch f.Type {
	case "string":
		return deref(f.String)
	case "number":
		if f.Number != nil {
			return formatNumber(*f.Number)
		}
	case "boolean":
		if f.Boolean != nil {
			return yesNo(*f.Boolean)
		}
	case "date":
		return formatDate(f.Date)
	}
	return ""
}

func formatRollup(r *notion.RollupValue, assets map[string]string) string {
	if r == nil {
		return ""
	}
	switch r.Type {
	case "number":
		if r.Number != nil {
			return formatNumber(*r.Number)
		}
	case "date":
		return formatDate(r.Date)
	case "array":
		var parts []string
		for i := range r.Array {
			if s, ok := PropertyText(&r.Array[i], assets); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
