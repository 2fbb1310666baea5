package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/petri/components"
)

// InspectorData holds the selected cell and its surroundings.
type InspectorData struct {
	Cell           components.Cell
	Pos            components.Position
	Toxicity       float64 // patch toxicity, 0..1
	ResistanceNorm float64 // resistance over the configured range, 0..1
	Color          rl.Color
	Tick           int
}

func inspected(data any) InspectorData {
	return data.(InspectorData)
}

// inspectorSections describes the inspector layout.
var inspectorSections = []SectionDescriptor{
	{
		ID:    "identity",
		Title: "Cell",
		Fields: []FieldDescriptor{
			{ID: "id", Label: "ID", Widget: WidgetText, TextGetter: func(d any) string {
				return fmt.Sprintf("#%d", inspected(d).Cell.ID)
			}},
			{ID: "parent", Label: "Parent", Widget: WidgetText, TextGetter: func(d any) string {
				if p := inspected(d).Cell.ParentID; p != 0 {
					return fmt.Sprintf("#%d", p)
				}
				return "founder"
			}},
			{ID: "generation", Label: "Generation", Widget: WidgetText, TextGetter: func(d any) string {
				return fmt.Sprint(inspected(d).Cell.Generation)
			}},
			{ID: "patch", Label: "Patch", Widget: WidgetText, TextGetter: func(d any) string {
				return inspected(d).Pos.String()
			}},
		},
	},
	{
		ID:    "lifecycle",
		Title: "Life cycle",
		Fields: []FieldDescriptor{
			{ID: "age", Label: "Age", Widget: WidgetText, TextGetter: func(d any) string {
				data := inspected(d)
				return fmt.Sprintf("%d (born %d)", data.Cell.Age, data.Cell.BirthTick)
			}},
			{ID: "divisions", Label: "Divisions", Widget: WidgetText, TextGetter: func(d any) string {
				return fmt.Sprint(inspected(d).Cell.Divisions)
			}},
			{ID: "cooldown", Label: "Cooldown", Widget: WidgetText, Visible: func(d any) bool {
				return inspected(d).Cell.Cooldown > 0
			}, TextGetter: func(d any) string {
				return fmt.Sprint(inspected(d).Cell.Cooldown)
			}},
		},
	},
	{
		ID:    "environment",
		Title: "Poison",
		Fields: []FieldDescriptor{
			{ID: "resistance_value", Label: "Resistance", Widget: WidgetText, TextGetter: func(d any) string {
				return fmt.Sprintf("%.2f", inspected(d).Cell.Resistance)
			}},
			{ID: "resistance", Label: "Norm", Widget: WidgetBar, Getter: func(d any) float32 {
				return float32(inspected(d).ResistanceNorm)
			}},
			{ID: "toxicity", Label: "Toxicity", Widget: WidgetBar, Getter: func(d any) float32 {
				return float32(inspected(d).Toxicity)
			}},
			{ID: "color", Label: "Color", Widget: WidgetSwatch, ColorGetter: func(d any) rl.Color {
				return inspected(d).Color
			}},
		},
	},
}

// Inspector renders the selected cell panel.
type Inspector struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewInspector creates a new inspector panel.
func NewInspector(x, y, width int32) *Inspector {
	return &Inspector{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (ins *Inspector) SetPosition(x, y int32) {
	ins.x = x
	ins.y = y
}

// Draw renders the inspector and returns the Y below it.
func (ins *Inspector) Draw(data InspectorData) int32 {
	r := ins.renderer
	padding := r.Theme.Padding

	height := padding * 2
	for _, sd := range inspectorSections {
		height += r.SectionHeight(sd, data)
	}
	r.DrawPanel(ins.x, ins.y, ins.width, height)

	y := ins.y + padding
	for _, sd := range inspectorSections {
		y = r.DrawSection(ins.x+padding, y, sd, data, ins.width-padding*2)
	}
	return ins.y + height
}
