package segment

import "strconv"

// AudioSpan is a time-bounded region of a source audio file. Start and Length
// are expressed in milliseconds.
type AudioSpan struct {
	Path   string
	Start  float64
	Length float64
}

// End returns the exclusive end offset of the span.
func (a AudioSpan) End() float64 {
	return a.Start + a.Length
}

// TextSpan carries the content of a text item.
type TextSpan struct {
	Text string
}

// Kind discriminates the Item union.
type Kind int

const (
	KindText Kind = iota
	KindAudio
)

func (k Kind) String() string {
	if k == KindAudio {
		return "audio"
	}
	return "text"
}

// Item is either an audio span or a text span. Raw keeps the serialized form
// the item was decoded from so records can be written back unchanged.
type Item struct {
	Kind  Kind
	Audio AudioSpan
	Text  TextSpan
	Raw   string
}

// NewAudioItem builds an audio item whose raw form is "path start end".
func NewAudioItem(span AudioSpan) Item {
	return Item{
		Kind:  KindAudio,
		Audio: span,
		Raw:   span.Path + " " + formatOffset(span.Start) + " " + formatOffset(span.End()),
	}
}

func formatOffset(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// NewTextItem builds a text item.
func NewTextItem(text string) Item {
	return Item{Kind: KindText, Text: TextSpan{Text: text}, Raw: text}
}

// IsAudio reports whether the item is an audio span.
func (i Item) IsAudio() bool {
	return i.Kind == KindAudio
}

func (i Item) String() string {
	return i.Raw
}

// Role names which member of a pair carries the audio span the pipeline
// filters and deduplicates on.
type Role int

const (
	RoleFirst Role = iota
	RoleSecond
)

func (r Role) String() string {
	if r == RoleSecond {
		return "second"
	}
	return "first"
}

// Record is one scored candidate pair.
type Record struct {
	First  Item
	Second Item
	Score  float64
}

// Item returns the member selected by role.
func (r Record) Item(role Role) Item {
	if role == RoleSecond {
		return r.Second
	}
	return r.First
}

// Audio returns the audio span of the member selected by role. The result is
// the zero span when that member is text.
func (r Record) Audio(role Role) AudioSpan {
	return r.Item(role).Audio
}

// AudioRole returns the first member that is audio. ok is false when neither
// member is audio.
func (r Record) AudioRole() (role Role, ok bool) {
	switch {
	case r.First.IsAudio():
		return RoleFirst, true
	case r.Second.IsAudio():
		return RoleSecond, true
	default:
		return RoleFirst, false
	}
}
