package inspector

import (
	"github.com/google/uuid"

	"github.com/ghalamif/wavescope/internal/domain"
)

const DefaultAnnotationPrefix = "Waveform view"

var DefaultOffset = domain.Offset{X: 20, Y: -20}

// AnnotationCollection is the slice of the model the mirror writes to.
type AnnotationCollection interface {
	Annotations() []domain.Annotation
	ReplaceAnnotations(origin string, list []domain.Annotation)
}

// ShadowEntry is one series' contribution to a publish.
type ShadowEntry struct {
	ItemIndex int
	Series    domain.SeriesInfo
	Sample    *domain.Sample
}

// Mirror keeps one internal annotation per selected series in the shared
// annotation list. It is not safe for concurrent use; the controller
// goroutine owns it.
type Mirror struct {
	coll          AnnotationCollection
	prefix        string
	defaultOffset domain.Offset
	guard         echoGuard
	shadows       []domain.Annotation
}

func NewMirror(coll AnnotationCollection, prefix string, defaultOffset domain.Offset) *Mirror {
	if prefix == "" {
		prefix = DefaultAnnotationPrefix
	}
	return &Mirror{
		coll:          coll,
		prefix:        prefix,
		defaultOffset: defaultOffset,
		guard:         echoGuard{token: uuid.NewString()},
	}
}

// Label is the annotation text used for a series.
func (m *Mirror) Label(info domain.SeriesInfo) string {
	return m.prefix + " " + info.Name()
}

// Origin is the token stamped on annotation changes made by this mirror.
func (m *Mirror) Origin() string { return m.guard.token }

// IsEcho reports whether an annotation change was caused by this mirror.
func (m *Mirror) IsEcho(ev domain.ModelEvent) bool {
	return m.guard.owns(ev.Origin)
}

// Publish replaces the shadow annotations with one per entry. Offsets the
// user gave an existing shadow are kept; shadows of series that are no longer
// published are dropped. The shared list is written once.
func (m *Mirror) Publish(entries []ShadowEntry) {
	list := m.coll.Annotations()
	previous := make(map[string]domain.Annotation, len(m.shadows))
	for _, s := range m.shadows {
		previous[s.Text] = s
	}

	next := make([]domain.Annotation, 0, len(entries))
	for _, e := range entries {
		label := m.Label(e.Series)
		prev, hadPrev := previous[label]
		delete(previous, label)

		ann := domain.Annotation{
			ID:        prev.ID,
			Internal:  true,
			ItemIndex: e.ItemIndex,
			Time:      e.Sample.Timestamp,
			Value:     e.Sample.Position,
			Offset:    m.defaultOffset,
			Text:      label,
		}
		if i := indexOf(list, prev.ID, label); i >= 0 {
			ann.Offset = list[i].Offset
			if !hadPrev {
				ann.ID = list[i].ID
			}
			list = append(list[:i], list[i+1:]...)
		}
		if ann.ID == "" {
			ann.ID = uuid.NewString()
		}
		list = append(list, ann)
		next = append(next, ann)
	}

	for _, stale := range previous {
		if i := indexOf(list, stale.ID, stale.Text); i >= 0 {
			list = append(list[:i], list[i+1:]...)
		}
	}

	m.write(list)
	m.shadows = next
}

// Clear removes every published shadow from the shared list.
func (m *Mirror) Clear() {
	if len(m.shadows) == 0 {
		return
	}
	list := m.coll.Annotations()
	removed := false
	for _, s := range m.shadows {
		if i := indexOf(list, s.ID, s.Text); i >= 0 {
			list = append(list[:i], list[i+1:]...)
			removed = true
		}
	}
	if removed {
		m.write(list)
	}
	m.shadows = nil
}

// Shadows returns the currently published shadow annotations.
func (m *Mirror) Shadows() []domain.Annotation {
	out := make([]domain.Annotation, len(m.shadows))
	copy(out, m.shadows)
	return out
}

// FindExternal locates the external copy of the primary shadow in list.
func (m *Mirror) FindExternal(list []domain.Annotation) (shadow, external domain.Annotation, ok bool) {
	if len(m.shadows) == 0 {
		return domain.Annotation{}, domain.Annotation{}, false
	}
	shadow = m.shadows[0]
	for _, a := range list {
		if (shadow.ID != "" && a.ID == shadow.ID) ||
			(a.Internal && a.ItemIndex == shadow.ItemIndex && a.Text == shadow.Text) {
			return shadow, a, true
		}
	}
	return shadow, domain.Annotation{}, false
}

func (m *Mirror) write(list []domain.Annotation) {
	release := m.guard.enter()
	defer release()
	m.coll.ReplaceAnnotations(m.guard.token, list)
}

// indexOf matches by id first, then by label text. The text fallback only
// considers internal annotations so a user note never gets taken over.
func indexOf(list []domain.Annotation, id, text string) int {
	if id != "" {
		for i, a := range list {
			if a.ID == id {
				return i
			}
		}
	}
	for i, a := range list {
		if a.Internal && a.Text == text {
			return i
		}
	}
	return -1
}

// echoGuard marks the window in which the mirror writes the shared list.
// Synchronous listeners see active == true; asynchronous ones compare the
// event origin with token.
type echoGuard struct {
	token  string
	active bool
}

func (g *echoGuard) enter() func() {
	g.active = true
	return func() { g.active = false }
}

func (g *echoGuard) owns(origin string) bool {
	return g.active || (origin != "" && origin == g.token)
}
