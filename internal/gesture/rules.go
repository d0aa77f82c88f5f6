package gesture

import (
	"math"
	"time"

	"github.com/ayusman/handsheet/internal/command"
	"github.com/ayusman/handsheet/internal/detector"
	"github.com/ayusman/handsheet/internal/geometry"
)

// handInfo is the per-frame reading of one hand.
type handInfo struct {
	slot int
	hand *detector.HandLandmarks

	tip     geometry.ScreenPoint
	loc     geometry.Location
	located bool
	cell    geometry.Cell
	onCell  bool

	pinching bool
	open     bool
	fist     bool
	vel      geometry.Velocity

	lm9     geometry.ScreenPoint
	prevLM9 geometry.ScreenPoint
	hasPrev bool
}

// observe classifies each hand and advances per-slot tracking. Slots with
// no hand this frame are released.
func (e *Engine) observe(hands []detector.HandLandmarks, now time.Time) []handInfo {
	st := e.state
	vp := e.config.Viewport
	infos := make([]handInfo, len(hands))

	for i := range hands {
		h := &hands[i]
		hs := &st.hands[i]
		info := handInfo{
			slot:     i,
			hand:     h,
			tip:      vp.ToScreen(h.Points[detector.IndexTip]),
			pinching: geometry.IsPinching(h, geometry.PinchThreshold),
			open:     geometry.IsOpenPalm(h),
			fist:     geometry.IsClosedFist(h),
			vel:      st.kin.Update(i, h.Points[detector.IndexTip], now),
			lm9:      vp.ToScreen(h.Points[detector.MiddleMCP]),
			prevLM9:  hs.lm9,
			hasPrev:  hs.hasLM9,
		}
		if e.source != nil {
			info.loc, info.located = e.source.Locate(info.tip)
		}
		if info.located && info.loc.Kind == geometry.LocationCell && info.loc.Row >= 0 && info.loc.Col >= 0 {
			info.cell = geometry.Cell{Row: info.loc.Row, Col: info.loc.Col}
			info.onCell = true
		}

		hs.lm9, hs.hasLM9 = info.lm9, true
		if hs.pinching && !info.pinching {
			st.release(i)
		}
		hs.pinching = info.pinching
		infos[i] = info
	}

	for i := len(hands); i < detector.MaxHands; i++ {
		st.vanish(i)
	}
	if len(hands) < 2 {
		st.hasMergePrev = false
		st.hasZoomLast = false
	}
	return infos
}

// runRules posts every candidate for the frame. Order matters only where a
// rule reads state an earlier rule wrote in the same frame.
func (e *Engine) runRules(infos []handInfo, now time.Time) {
	e.ruleSelect(infos)
	e.ruleScroll(infos, now)
	e.ruleUndoRedo(infos, now)
	if e.config.LegacyDelete {
		e.ruleSpikeDelete(infos)
	}
	e.ruleDwellDelete(infos, now)
	e.ruleMerge(infos)
	e.ruleZoom(infos)
	e.ruleCopy(infos)
	e.rulePaste(infos, now)
	e.ruleAutofill(infos)
}

func (e *Engine) rank(name string, score float64, h handInfo, cmd command.Command) {
	e.bucket.Rank(Candidate{Name: name, Score: score, Command: cmd, Hand: h.slot, Point: h.tip})
}

// ruleSelect: a pinch on a cell selects it.
func (e *Engine) ruleSelect(infos []handInfo) {
	st := e.state
	for _, h := range infos {
		hs := &st.hands[h.slot]
		if !h.pinching || !h.onCell || hs.spent {
			continue
		}
		e.rank(NameSelect, 0.92, h, command.Command{Action: command.ActionSelect, Range: h.cell.A1()})
		st.copyArmed = true
		if st.seed == nil {
			c := h.cell
			st.seed = &c
		}
	}
}

// ruleScroll steps one row per open-palm swipe of the middle knuckle, with
// hysteresis between axes, global and per-hand pacing, and an axis lock.
func (e *Engine) ruleScroll(infos []handInfo, now time.Time) {
	st := e.state
	cfg := e.config
	for _, h := range infos {
		hs := &st.hands[h.slot]
		if !h.open || h.pinching || !h.hasPrev {
			continue
		}
		if now.Before(st.scrollUntil) || now.Before(hs.scrollUntil) {
			continue
		}

		dx := h.prevLM9.X - h.lm9.X
		dy := h.prevLM9.Y - h.lm9.Y
		ax, ay := math.Abs(dx), math.Abs(dy)
		vertical := ay > cfg.ScrollVerticalPixels && ay > ax*(1+cfg.ScrollHysteresis)
		horizontal := ax > cfg.ScrollHorizontalPixels && ax >= ay*(1+cfg.ScrollHysteresis)

		var cmd command.Command
		var score float64
		var axis string
		switch {
		case vertical && !st.axisBlocks("v", now):
			delta := 1
			if dy > 0 {
				delta = -1
			}
			cmd = command.Command{Action: command.ActionScroll, Delta: delta}
			score = 0.75 + 0.25*math.Min(1, ay/(1.5*cfg.ScrollVerticalPixels))
			axis = "v"
		case horizontal && cfg.HorizontalScroll && !st.axisBlocks("h", now):
			delta := 1
			if dx > 0 {
				delta = -1
			}
			cmd = command.Command{Action: command.ActionScroll, DeltaCols: delta}
			score = 0.75 + 0.25*math.Min(1, ax/(1.5*cfg.ScrollHorizontalPixels))
			axis = "h"
		default:
			continue
		}

		e.rank(NameScroll, score, h, cmd)
		st.scrollUntil = now.Add(cfg.ScrollCooldown)
		hs.scrollUntil = now.Add(cfg.ScrollCooldown)
		st.axis, st.axisUntil = axis, now.Add(cfg.AxisLock)
		st.disarmPaste()
	}
}

// ruleUndoRedo: a fast horizontal open-palm swipe. Left undoes.
func (e *Engine) ruleUndoRedo(infos []handInfo, now time.Time) {
	st := e.state
	for _, h := range infos {
		if !h.open || h.pinching {
			continue
		}
		if st.axis == "v" && now.Before(st.axisUntil) {
			continue
		}
		mag := math.Min(1, math.Abs(h.vel.X)*1200)
		vertical := math.Min(1, math.Abs(h.vel.Y)*1200)
		if mag <= 0.7 || vertical >= 0.6 {
			continue
		}
		name, action := NameRedo, command.ActionRedo
		if h.vel.X < 0 {
			name, action = NameUndo, command.ActionUndo
		}
		e.rank(name, 0.85+0.15*mag, h, command.Command{Action: action})
	}
}

// ruleSpikeDelete clears the selection on a sharp downward fingertip spike.
func (e *Engine) ruleSpikeDelete(infos []handInfo) {
	if e.source == nil {
		return
	}
	sel, ok := e.source.Selection()
	if !ok {
		return
	}
	for _, h := range infos {
		mag := math.Min(1, math.Max(0, h.vel.Y)*1400)
		if mag <= 0.8 {
			continue
		}
		e.rank(NameDelete, 0.82+0.18*mag, h, command.Command{Action: command.ActionDelete, Range: sel.A1()})
	}
}

// ruleDwellDelete locks the cell, row or column a pinch dwells on and
// clears it on a downward flick below the midline.
func (e *Engine) ruleDwellDelete(infos []handInfo, now time.Time) {
	st := e.state
	cfg := e.config
	for _, h := range infos {
		hs := &st.hands[h.slot]
		if !h.pinching {
			continue
		}

		d := &hs.dwell
		if d.lockedID == "" {
			e.trackDwell(d, dwellAt(h), now)
		}

		if d.lockedID == "" || !h.hasPrev {
			continue
		}
		if h.lm9.Y <= cfg.Viewport.Midline()+cfg.MidlineOffset {
			continue
		}
		if h.lm9.Y-h.prevLM9.Y <= cfg.FlickPixels || now.Before(hs.deleteUntil) {
			continue
		}

		rng, ok := e.dwellRange(d.locked)
		if !ok {
			continue
		}
		e.bucket.Rank(Candidate{
			Name:    NameDelete,
			Score:   0.99,
			Command: command.Command{Action: command.ActionDelete, Range: rng},
			Hand:    h.slot,
			Point:   h.tip,
			Locked:  true,
		})
		hs.deleteUntil = now.Add(cfg.DeleteCooldown)
		st.disarmPaste()
	}
}

func (e *Engine) trackDwell(d *dwell, t dwellTarget, now time.Time) {
	id := t.id()
	switch {
	case id != "" && id == d.candID:
		d.strayID = ""
		if now.Sub(d.candSince) >= e.config.Dwell {
			d.locked, d.lockedID = d.cand, d.candID
		}
	case d.candID != "":
		// A short excursion off the candidate does not restart the dwell.
		if d.strayID != id || d.straySince.IsZero() {
			d.strayID, d.straySince = id, now
		}
		if now.Sub(d.straySince) < e.config.DwellGrace {
			return
		}
		d.cand, d.candID, d.candSince = t, id, d.straySince
		d.strayID, d.straySince = "", time.Time{}
		if id == "" {
			d.candSince = time.Time{}
		}
	default:
		d.cand, d.candID, d.candSince = t, id, now
	}
}

func dwellAt(h handInfo) dwellTarget {
	if !h.located {
		return dwellTarget{}
	}
	switch h.loc.Kind {
	case geometry.LocationCell:
		if h.loc.Row >= 0 && h.loc.Col >= 0 {
			return dwellTarget{kind: geometry.LocationCell, row: h.loc.Row, col: h.loc.Col}
		}
	case geometry.LocationRowHeader:
		if row, ok := geometry.RowFromLabel(h.loc.Label); ok {
			return dwellTarget{kind: geometry.LocationRowHeader, row: row}
		}
	case geometry.LocationColumnHeader:
		if h.loc.Col >= 0 {
			return dwellTarget{kind: geometry.LocationColumnHeader, col: h.loc.Col}
		}
	}
	return dwellTarget{}
}

func (e *Engine) dwellRange(t dwellTarget) (string, bool) {
	switch t.kind {
	case geometry.LocationCell:
		c := geometry.Cell{Row: t.row, Col: t.col}
		return geometry.RectOf(c, c).A1(), true
	case geometry.LocationRowHeader:
		if e.source == nil || e.source.CountCols() < 1 {
			return "", false
		}
		return geometry.Rect{R1: t.row, C1: 0, R2: t.row, C2: e.source.CountCols() - 1}.A1(), true
	case geometry.LocationColumnHeader:
		if e.source == nil || e.source.CountRows() < 1 {
			return "", false
		}
		return geometry.Rect{R1: 0, C1: t.col, R2: e.source.CountRows() - 1, C2: t.col}.A1(), true
	}
	return "", false
}

// ruleMerge: two fingertips on cells closing in on each other.
func (e *Engine) ruleMerge(infos []handInfo) {
	st := e.state
	if len(infos) < 2 {
		return
	}
	a, b := infos[0], infos[1]
	if !a.onCell || !b.onCell {
		return
	}
	dist := geometry.Distance(a.hand.Points[detector.IndexTip], b.hand.Points[detector.IndexTip])
	if st.hasMergePrev && dist < 0.06 && st.mergePrev > dist {
		rng := geometry.RectOf(a.cell, b.cell).A1()
		e.rank(NameMerge, 0.9, a, command.Command{Action: command.ActionMerge, Range: rng})
	}
	st.mergePrev, st.hasMergePrev = dist, true
}

// ruleZoom: two hands spreading or closing.
func (e *Engine) ruleZoom(infos []handInfo) {
	st := e.state
	if len(infos) < 2 {
		return
	}
	a, b := infos[0], infos[1]
	d := geometry.Distance(a.hand.Points[detector.IndexTip], b.hand.Points[detector.IndexTip])
	if !st.hasZoomLast {
		st.zoomLast, st.hasZoomLast = d, true
	}
	delta := d - st.zoomLast
	st.zoomLast = d

	mag := math.Min(1, math.Abs(delta)*16)
	if mag <= 0.25 {
		return
	}
	name, dir := NameZoomIn, "in"
	if delta < 0 {
		name, dir = NameZoomOut, "out"
	}
	e.rank(name, 0.75+0.25*mag, a, command.Command{Action: command.ActionZoom, Direction: dir, Step: 0.1 + 0.2*mag})
}

// ruleCopy: one hand pinching a cell while the other makes a fist. It
// supersedes that hand's select for the frame.
func (e *Engine) ruleCopy(infos []handInfo) {
	st := e.state
	if !st.copyArmed || len(infos) < 2 {
		return
	}
	pinch, fist := -1, -1
	for i, h := range infos {
		if pinch < 0 && h.pinching && h.onCell && !st.hands[h.slot].spent {
			pinch = i
		}
	}
	for i, h := range infos {
		if i != pinch && fist < 0 && h.fist {
			fist = i
		}
	}
	if pinch < 0 || fist < 0 {
		return
	}

	h := infos[pinch]
	rng := h.cell.A1()
	if e.source != nil {
		if sel, ok := e.source.Selection(); ok {
			rng = sel.A1()
		}
	}
	e.bucket.Drop(NameSelect, h.slot)
	e.rank(NameCopy, 0.9, h, command.Command{Action: command.ActionCopy, Range: rng})
}

// rulePaste: after a copy, an open palm over a cell pastes there.
func (e *Engine) rulePaste(infos []handInfo, now time.Time) {
	st := e.state
	if !st.PasteArmed(now) {
		return
	}
	for _, h := range infos {
		if !h.open || !h.onCell {
			continue
		}
		if e.config.PasteRequireStill && h.vel.Speed()*1200 >= 0.3 {
			continue
		}
		e.rank(NamePaste, 0.9, h, command.Command{Action: command.ActionPaste, At: h.cell.A1()})
		return
	}
}

// ruleAutofill: the first hand drags a pinch diagonally away from the seed.
func (e *Engine) ruleAutofill(infos []handInfo) {
	st := e.state
	if len(infos) == 0 {
		return
	}
	seed := st.seed
	if e.source != nil {
		if sel, ok := e.source.Selection(); ok {
			tl := sel.TopLeft()
			seed = &tl
		}
	}
	h := infos[0]
	if seed == nil || !h.pinching || !h.onCell {
		return
	}
	dr := abs(h.cell.Row - seed.Row)
	dc := abs(h.cell.Col - seed.Col)
	diag := min(dr, dc)
	if diag < 1 {
		return
	}
	score := math.Min(1, 0.6+0.1*float64(diag))
	rng := geometry.RectOf(*seed, h.cell).A1()
	e.rank(NameAutofill, score, h, command.Command{Action: command.ActionAutofill, Range: rng, Pattern: "series"})
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
