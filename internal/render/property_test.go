// Tests for property value display.

package render

import (
	"testing"
	"time"

	"github.com/adamwulf/hunch-sub000/internal/notion"
)

func ptrFloat(f float64) *float64 { return &f }
func ptrBool(b bool) *bool        { return &b }

func TestPropertyText(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	remote := "https://files.example.com/a.png"
	tests := []struct {
		name   string
		in     notion.PropertyValue
		want   string
		wantOK bool
	}{
		{"null", notion.NullProperty("x", notion.PropertySelect), "", false},
		{"title", notion.TitleProperty("Plan"), "Plan", true},
		{"empty rich text", notion.PropertyValue{Type: notion.PropertyRichText}, "", false},
		{"number", notion.PropertyValue{Type: notion.PropertyNumber, Number: ptrFloat(12.50)}, "12.5", true},
		{"large number", notion.PropertyValue{Type: notion.PropertyNumber, Number: ptrFloat(1e7)}, "10000000", true},
		{"empty number", notion.PropertyValue{Type: notion.PropertyNumber}, "", false},
		{"select", notion.PropertyValue{Type: notion.PropertySelect, Select: &notion.SelectOption{Name: "A"}}, "A", true},
		{"status", notion.PropertyValue{Type: notion.PropertyStatus, Status: &notion.SelectOption{Name: "Done"}}, "Done", true},
		{"multi select", notion.PropertyValue{Type: notion.PropertyMultiSelect, MultiSelect: []notion.SelectOption{{Name: "a"}, {Name: "b"}}}, "a, b", true},
		{"date", notion.PropertyValue{Type: notion.PropertyDate, Date: &notion.DateValue{Start: "2024-01-02"}}, "2024-01-02", true},
		{"date range", notion.PropertyValue{Type: notion.PropertyDate, Date: &notion.DateValue{Start: "2024-01-02", End: ptrStr("2024-01-05")}}, "2024-01-02/2024-01-05", true},
		{"people", notion.PropertyValue{Type: notion.PropertyPeople, People: []notion.User{{ID: "u1", Name: "Ann"}, {ID: "u2"}}}, "Ann, u2", true},
		{
			"files",
			notion.PropertyValue{Type: notion.PropertyFiles, Files: []notion.FileObject{
				{Name: "a.png", Type: "file", File: &notion.File{URL: remote}},
				{Type: "external", External: &notion.File{URL: "https://example.com/b.pdf"}},
			}},
			"[a.png](assets/a.png), [b.pdf](https://example.com/b.pdf)", true,
		},
		{"checked", notion.CheckboxProperty(true), "Yes", true},
		{"unchecked", notion.CheckboxProperty(false), "No", true},
		{"url", notion.PropertyValue{Type: notion.PropertyURL, URL: ptrStr("https://example.com")}, "https://example.com", true},
		{"empty email", notion.PropertyValue{Type: notion.PropertyEmail}, "", false},
		{"phone", notion.PropertyValue{Type: notion.PropertyPhoneNumber, PhoneNumber: ptrStr("+1 555")}, "+1 555", true},
		{"formula string", notion.PropertyValue{Type: notion.PropertyFormula, Formula: &notion.FormulaValue{Type: "string", String: ptrStr("s")}}, "s", true},
		{"formula number", notion.PropertyValue{Type: notion.PropertyFormula, Formula: &notion.FormulaValue{Type: "number", Number: ptrFloat(3)}}, "3", true},
		{"formula boolean", notion.PropertyValue{Type: notion.PropertyFormula, Formula: &notion.FormulaValue{Type: "boolean", Boolean: ptrBool(false)}}, "No", true},
		{"formula date", notion.PropertyValue{Type: notion.PropertyFormula, Formula: &notion.FormulaValue{Type: "date", Date: &notion.DateValue{Start: "2024-02-01"}}}, "2024-02-01", true},
		{"relation", notion.PropertyValue{Type: notion.PropertyRelation, Relation: []notion.RelationValue{{ID: "r1"}, {ID: "r2"}}}, "r1, r2", true},
		{"empty relation", notion.PropertyValue{Type: notion.PropertyRelation, Relation: []notion.RelationValue{}}, "", false},
		{"rollup number", notion.PropertyValue{Type: notion.PropertyRollup, Rollup: &notion.RollupValue{Type: "number", Number: ptrFloat(7)}}, "7", true},
		{
			"rollup array",
			notion.PropertyValue{Type: notion.PropertyRollup, Rollup: &notion.RollupValue{Type: "array", Array: []notion.PropertyValue{
				notion.TitleProperty("x"), notion.NullProperty("", notion.PropertyNumber), notion.TitleProperty("y"),
			}}},
			"x, y", true,
		},
		{"rollup incomplete", notion.PropertyValue{Type: notion.PropertyRollup, Rollup: &notion.RollupValue{Type: "incomplete"}}, "", false},
		{"created time", notion.PropertyValue{Type: notion.PropertyCreatedTime, CreatedTime: &created}, "2024-01-02T03:04:05Z", true},
		{"created by", notion.PropertyValue{Type: notion.PropertyCreatedBy, CreatedBy: &notion.User{ID: "u1", Name: "Ann"}}, "Ann", true},
		{"last edited by id", notion.PropertyValue{Type: notion.PropertyLastEditedBy, LastEditedBy: &notion.User{ID: "u9"}}, "u9", true},
		{"unique id", notion.PropertyValue{Type: notion.PropertyUniqueID, UniqueID: &notion.UniqueIDValue{Prefix: ptrStr("TASK"), Number: 12}}, "TASK-12", true},
		{"unique id without prefix", notion.PropertyValue{Type: notion.PropertyUniqueID, UniqueID: &notion.UniqueIDValue{Number: 3}}, "3", true},
		{"unknown kind", notion.PropertyValue{Type: "button"}, "", false},
	}
	assets := map[string]string{remote: "assets/a.png"}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PropertyText(&tt.in, assets)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("PropertyText() = (%q, %t), want (%q, %t)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
