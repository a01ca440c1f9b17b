package view

// Viewport breakpoints in CSS pixels. Widths at or below PhoneMaxWidth get a
// list view, widths at or below TabletMaxWidth a single-day grid, anything
// wider the full week/month calendar.
const (
	PhoneMaxWidth  = 420
	TabletMaxWidth = 768
)

// Height calculation constants. The calendar fills the viewport below the
// navigation bar, minus a fixed footer allowance and outer margin, and never
// shrinks below MinCalendarHeight.
const (
	footerAllowance   = 80
	verticalMargin    = 100
	MinCalendarHeight = 400
)

// Toolbar names the widget controls shown in each header slot.
type Toolbar struct {
	Left   string
	Center string
	Right  string
}

// Layout is the responsive calendar configuration for one viewport width.
type Layout struct {
	InitialView string
	Toolbar     Toolbar
}

// LayoutForWidth picks the calendar layout for a viewport width.
func LayoutForWidth(width int) Layout {
	switch {
	case width <= PhoneMaxWidth:
		return Layout{
			InitialView: "listWeek",
			Toolbar: Toolbar{
				Left:   "prev,next",
				Center: "title",
				Right:  "listWeek",
			},
		}
	case width <= TabletMaxWidth:
		return Layout{
			InitialView: "timeGridDay",
			Toolbar: Toolbar{
				Left:   "prev,next today",
				Center: "title",
				Right:  "timeGridDay,listWeek",
			},
		}
	default:
		return Layout{
			InitialView: "timeGridWeek",
			Toolbar: Toolbar{
				Left:   "prev,next today",
				Center: "title",
				Right:  "dayGridMonth,timeGridWeek,timeGridDay",
			},
		}
	}
}

// HeightFor computes the calendar height for a viewport. navbarBottom is the
// bottom edge of the navigation bar in viewport coordinates.
func HeightFor(viewportHeight, navbarBottom int) int {
	height := viewportHeight - navbarBottom - footerAllowance - verticalMargin
	if height < MinCalendarHeight {
		return MinCalendarHeight
	}
	return height
}
