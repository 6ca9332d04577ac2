package transcript

// Node identity markers shared with the renderer. These strings are part of
// the markup contract and must match it byte for byte.
const (
	MessagePrefix     = "message-"
	AnchorID          = "insert"
	PlaceholderPrefix = "insert"
	WrapClassPrefix   = "x-wrap"
	MergedClassPrefix = "x-message"
	TimeClassPrefix   = "x-time"
	ClassConsecutive  = "consecutive"
	DefaultChatID     = "chat"
)

// Selectors derived from the markers.
const (
	selMessage     = `[id^="` + MessagePrefix + `"]`
	selPlaceholder = `[id^="` + PlaceholderPrefix + `"]`
	selWrap        = `[class^="` + WrapClassPrefix + `"]`
	selMerged      = `[class^="` + MergedClassPrefix + `"]`
	selTime        = `[class^="` + TimeClassPrefix + `"]`
	selAnchor      = "#" + AnchorID
)

// MarkerSet lists the markup markers in effect.
type MarkerSet struct {
	MessagePrefix     string `json:"message_prefix" yaml:"message_prefix"`
	AnchorID          string `json:"anchor_id" yaml:"anchor_id"`
	PlaceholderPrefix string `json:"placeholder_prefix" yaml:"placeholder_prefix"`
	WrapClassPrefix   string `json:"wrap_class_prefix" yaml:"wrap_class_prefix"`
	MergedClassPrefix string `json:"merged_class_prefix" yaml:"merged_class_prefix"`
	TimeClassPrefix   string `json:"time_class_prefix" yaml:"time_class_prefix"`
	ClassConsecutive  string `json:"class_consecutive" yaml:"class_consecutive"`
}

// Markers is the fixed marker set. Only the chat container id is
// configurable.
var Markers = MarkerSet{
	MessagePrefix:     MessagePrefix,
	AnchorID:          AnchorID,
	PlaceholderPrefix: PlaceholderPrefix,
	WrapClassPrefix:   WrapClassPrefix,
	MergedClassPrefix: MergedClassPrefix,
	TimeClassPrefix:   TimeClassPrefix,
	ClassConsecutive:  ClassConsecutive,
}
