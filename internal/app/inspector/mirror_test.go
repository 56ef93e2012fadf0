package inspector

import (
	"testing"

	"github.com/ghalamif/wavescope/internal/domain"
)

type recordingCollection struct {
	list    []domain.Annotation
	writes  int
	origins []string
	echoes  []bool
	mirror  *Mirror
}

func (r *recordingCollection) Annotations() []domain.Annotation {
	out := make([]domain.Annotation, len(r.list))
	copy(out, r.list)
	return out
}

func (r *recordingCollection) ReplaceAnnotations(origin string, list []domain.Annotation) {
	r.writes++
	r.origins = append(r.origins, origin)
	if r.mirror != nil {
		r.echoes = append(r.echoes, r.mirror.IsEcho(domain.ModelEvent{Kind: domain.AnnotationsChanged}))
	}
	r.list = append([]domain.Annotation(nil), list...)
}

func (r *recordingCollection) byText(text string) (domain.Annotation, bool) {
	for _, a := range r.list {
		if a.Text == text {
			return a, true
		}
	}
	return domain.Annotation{}, false
}

func entries() []ShadowEntry {
	return []ShadowEntry{
		{ItemIndex: 0, Series: domain.SeriesInfo{ID: "a", DisplayName: "Wave A"}, Sample: &domain.Sample{Timestamp: at(10), Value: []float64{2}, Position: 2}},
		{ItemIndex: 1, Series: domain.SeriesInfo{ID: "b"}, Sample: &domain.Sample{Timestamp: at(5), Value: []float64{9}, Position: 9}},
	}
}

func TestMirrorPublishWritesOnceWithDefaults(t *testing.T) {
	coll := &recordingCollection{list: []domain.Annotation{{Text: "user note"}}}
	m := NewMirror(coll, "", DefaultOffset)

	m.Publish(entries())

	if coll.writes != 1 {
		t.Fatalf("expected a single list replacement, got %d", coll.writes)
	}
	if coll.origins[0] != m.Origin() {
		t.Fatalf("write must carry the mirror origin")
	}
	if len(coll.list) != 3 {
		t.Fatalf("expected user note plus 2 shadows, got %d", len(coll.list))
	}
	a, ok := coll.byText("Waveform view Wave A")
	if !ok {
		t.Fatalf("missing shadow for Wave A: %+v", coll.list)
	}
	if !a.Internal || a.ItemIndex != 0 || !a.Time.Equal(at(10)) || a.Value != 2 || a.Offset != DefaultOffset || a.ID == "" {
		t.Fatalf("unexpected shadow %+v", a)
	}
	if _, ok := coll.byText("Waveform view b"); !ok {
		t.Fatalf("label must fall back to series id")
	}
}

func TestMirrorPublishIsIdempotentAndKeepsUserOffset(t *testing.T) {
	coll := &recordingCollection{}
	m := NewMirror(coll, "", DefaultOffset)

	m.Publish(entries())
	first := m.Shadows()

	// The user drags the label of Wave A.
	for i := range coll.list {
		if coll.list[i].Text == "Waveform view Wave A" {
			coll.list[i].Offset = domain.Offset{X: -40, Y: 15}
		}
	}

	m.Publish(entries())
	second := m.Shadows()

	if len(first) != len(second) {
		t.Fatalf("shadow count changed: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Text != second[i].Text || !first[i].Time.Equal(second[i].Time) ||
			first[i].Value != second[i].Value || first[i].ID != second[i].ID {
			t.Fatalf("shadow %d changed: %+v vs %+v", i, first[i], second[i])
		}
	}
	a, _ := coll.byText("Waveform view Wave A")
	if a.Offset != (domain.Offset{X: -40, Y: 15}) {
		t.Fatalf("user offset lost, got %+v", a.Offset)
	}
	if len(coll.list) != 2 {
		t.Fatalf("old shadows must be replaced, got %d entries", len(coll.list))
	}
}

func TestMirrorPublishMatchesByIDAfterRelabel(t *testing.T) {
	coll := &recordingCollection{}
	m := NewMirror(coll, "", DefaultOffset)
	m.Publish(entries()[:1])

	// Another tool rewrites the text but keeps the id and offset.
	coll.list[0].Text = "renamed"
	coll.list[0].Offset = domain.Offset{X: 1, Y: 1}

	m.Publish(entries()[:1])
	if len(coll.list) != 1 {
		t.Fatalf("expected the renamed shadow to be replaced, got %+v", coll.list)
	}
	if coll.list[0].Offset != (domain.Offset{X: 1, Y: 1}) {
		t.Fatalf("offset not carried over by id match: %+v", coll.list[0])
	}
}

func TestMirrorDropsShadowsNoLongerPublished(t *testing.T) {
	coll := &recordingCollection{}
	m := NewMirror(coll, "", DefaultOffset)
	m.Publish(entries())
	m.Publish(entries()[:1])

	if _, ok := coll.byText("Waveform view b"); ok {
		t.Fatalf("stale shadow for b must be removed")
	}
	if len(coll.list) != 1 {
		t.Fatalf("expected 1 annotation, got %d", len(coll.list))
	}
}

func TestMirrorClearRemovesOnlyOwnShadows(t *testing.T) {
	coll := &recordingCollection{list: []domain.Annotation{{Text: "user note"}}}
	m := NewMirror(coll, "", DefaultOffset)
	m.Publish(entries())
	m.Clear()

	if len(coll.list) != 1 || coll.list[0].Text != "user note" {
		t.Fatalf("expected only the user note to remain, got %+v", coll.list)
	}
	if len(m.Shadows()) != 0 {
		t.Fatalf("shadows must be forgotten after clear")
	}

	writes := coll.writes
	m.Clear()
	if coll.writes != writes {
		t.Fatalf("clearing nothing must not write")
	}
}

func TestMirrorLeavesUserAnnotationWithShadowLabel(t *testing.T) {
	user := domain.Annotation{ID: "user-1", Text: "Waveform view Wave A", Offset: domain.Offset{X: 3, Y: 4}}
	coll := &recordingCollection{list: []domain.Annotation{user}}
	m := NewMirror(coll, "", DefaultOffset)

	m.Publish(entries())
	if len(coll.list) != 3 {
		t.Fatalf("expected user note plus 2 shadows, got %+v", coll.list)
	}
	if coll.list[0] != user {
		t.Fatalf("user note changed: %+v", coll.list[0])
	}
	for _, s := range m.Shadows() {
		if s.ID == user.ID {
			t.Fatalf("shadow took over the user note id")
		}
		if s.Text == user.Text && s.Offset != DefaultOffset {
			t.Fatalf("shadow inherited the user offset: %+v", s)
		}
	}

	m.Publish(entries()[1:])
	m.Clear()
	if len(coll.list) != 1 || coll.list[0] != user {
		t.Fatalf("expected only the user note to remain, got %+v", coll.list)
	}
}

func TestMirrorEchoGuard(t *testing.T) {
	coll := &recordingCollection{}
	m := NewMirror(coll, "", DefaultOffset)
	coll.mirror = m

	m.Publish(entries())
	m.Clear()
	for i, echo := range coll.echoes {
		if !echo {
			t.Fatalf("write %d: synchronous notification not recognised as echo", i)
		}
	}
	if m.IsEcho(domain.ModelEvent{Kind: domain.AnnotationsChanged}) {
		t.Fatalf("guard must be released after the write")
	}
	if !m.IsEcho(domain.ModelEvent{Kind: domain.AnnotationsChanged, Origin: m.Origin()}) {
		t.Fatalf("event stamped with own origin must be an echo")
	}
	if m.IsEcho(domain.ModelEvent{Kind: domain.AnnotationsChanged, Origin: "someone-else"}) {
		t.Fatalf("foreign origin must not be an echo")
	}
}

func TestMirrorFindExternal(t *testing.T) {
	coll := &recordingCollection{}
	m := NewMirror(coll, "", DefaultOffset)
	if _, _, ok := m.FindExternal(coll.list); ok {
		t.Fatalf("nothing published, nothing to find")
	}
	m.Publish(entries())

	moved := coll.Annotations()
	for i := range moved {
		if moved[i].Text == "Waveform view Wave A" {
			moved[i].Time = at(18)
		}
	}
	shadow, ext, ok := m.FindExternal(moved)
	if !ok || !ext.Time.Equal(at(18)) || !shadow.Time.Equal(at(10)) {
		t.Fatalf("expected moved primary annotation, got ok=%v ext=%+v", ok, ext)
	}
	if _, _, ok := m.FindExternal([]domain.Annotation{{Text: "Waveform view Wave A"}}); ok {
		t.Fatalf("non-internal annotation without id must not match")
	}
}
