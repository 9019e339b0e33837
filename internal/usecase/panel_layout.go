package usecase

// Rect is a button region in panel coordinate space. The right and bottom
// edges are exclusive.
type Rect struct {
	X1, Y1, X2, Y2 int
}

func (r Rect) Contains(x, y int) bool {
	return x >= r.X1 && x < r.X2 && y >= r.Y1 && y < r.Y2
}

// PanelLayout positions the panel's button regions. Buttons live in a
// UI-scaled coordinate space; screen clicks are divided by Scale before hit
// testing.
type PanelLayout struct {
	Scale float64

	RiskLock        Rect
	Limit           Rect
	Stop            Rect
	Buy             Rect
	Sell            Rect
	BreakEven       Rect
	Partial         Rect
	FlattenAll      Rect
	FlattenPosition Rect
	CancelPending   Rect
}

const (
	buttonW = 100
	buttonH = 40
	buttonS = 10
)

// NewPanelLayout lays the buttons out in two rows starting at the configured
// shift: entry toggles on top, action buttons below.
func NewPanelLayout(xShift, yShift int, scale float64) *PanelLayout {
	if scale <= 0 {
		scale = 1
	}
	l := &PanelLayout{Scale: scale}
	l.Reposition(xShift, yShift)
	return l
}

// Reposition recomputes all button regions, e.g. after a settings update.
func (l *PanelLayout) Reposition(xShift, yShift int) {
	row := func(y, col int) Rect {
		x := xShift + col*(buttonW+buttonS)
		return Rect{X1: x, Y1: y, X2: x + buttonW, Y2: y + buttonH}
	}
	top := yShift
	bottom := yShift + buttonH + buttonS

	l.Buy = row(top, 0)
	l.Sell = row(top, 1)
	l.Limit = row(top, 2)
	l.Stop = row(top, 3)
	l.RiskLock = row(top, 4)

	l.BreakEven = row(bottom, 0)
	l.Partial = row(bottom, 1)
	l.FlattenAll = row(bottom, 2)
	l.FlattenPosition = row(bottom, 3)
	l.CancelPending = row(bottom, 4)
}

// ToPanelSpace applies the inverse UI-scale transform to screen coordinates.
func (l *PanelLayout) ToPanelSpace(x, y int) (int, int) {
	return int(float64(x) / l.Scale), int(float64(y) / l.Scale)
}

func (l *PanelLayout) buttons() []Rect {
	return []Rect{
		l.RiskLock, l.Limit, l.Stop, l.Buy, l.Sell,
		l.BreakEven, l.Partial, l.FlattenAll, l.FlattenPosition, l.CancelPending,
	}
}

// InsideAnyButton reports whether a panel-space point sits on any button.
// Chart clicks outside every button are price-capture clicks.
func (l *PanelLayout) InsideAnyButton(x, y int) bool {
	for _, r := range l.buttons() {
		if r.Contains(x, y) {
			return true
		}
	}
	return false
}
