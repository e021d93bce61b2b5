package payload

import (
	"regexp"
)

// SegmentKind identifies an inline entity in reply text.
type SegmentKind string

const (
	SegmentText    SegmentKind = "text"
	SegmentAddress SegmentKind = "address"
	SegmentTxHash  SegmentKind = "tx_hash"
	SegmentURL     SegmentKind = "url"
	SegmentBold    SegmentKind = "bold"
)

// Segment is a run of reply text. For bold segments Value holds the inner
// text without the asterisks.
type Segment struct {
	Kind  SegmentKind
	Value string
}

var (
	urlPattern  = regexp.MustCompile(`https?://[^\s]+`)
	hexPattern  = regexp.MustCompile(`0x[a-fA-F0-9]+`)
	boldPattern = regexp.MustCompile(`\*\*([^*\n]+?)\*\*|\*([^*\n]+?)\*`)
)

// Tokenize splits text into plain, URL, address, transaction hash and bold
// segments. URLs are matched first so hashes inside explorer links stay part
// of the link. A hex run counts as an address only at exactly 40 digits and
// as a transaction hash only at exactly 64.
func Tokenize(text string) []Segment {
	var raw []Segment
	splitBy(text, urlPattern, func(s string, match bool) {
		if match {
			raw = append(raw, Segment{Kind: SegmentURL, Value: s})
			return
		}
		splitBy(s, hexPattern, func(s string, match bool) {
			kind := SegmentText
			if match {
				switch len(s) - 2 {
				case 40:
					kind = SegmentAddress
				case 64:
					kind = SegmentTxHash
				}
			}
			raw = append(raw, Segment{Kind: kind, Value: s})
		})
	})

	var out []Segment
	for _, seg := range mergeText(raw) {
		if seg.Kind == SegmentText {
			out = appendBold(out, seg.Value)
			continue
		}
		out = append(out, seg)
	}
	return out
}

func appendBold(out []Segment, s string) []Segment {
	last := 0
	for _, m := range boldPattern.FindAllStringSubmatchIndex(s, -1) {
		if m[0] > last {
			out = append(out, Segment{Kind: SegmentText, Value: s[last:m[0]]})
		}
		inner := ""
		switch {
		case m[2] >= 0:
			inner = s[m[2]:m[3]]
		case m[4] >= 0:
			inner = s[m[4]:m[5]]
		}
		out = append(out, Segment{Kind: SegmentBold, Value: inner})
		last = m[1]
	}
	if last < len(s) {
		out = append(out, Segment{Kind: SegmentText, Value: s[last:]})
	}
	return out
}

// splitBy calls fn for every match of re and every gap between matches, in order.
func splitBy(s string, re *regexp.Regexp, fn func(part string, match bool)) {
	last := 0
	for _, loc := range re.FindAllStringIndex(s, -1) {
		if loc[0] > last {
			fn(s[last:loc[0]], false)
		}
		fn(s[loc[0]:loc[1]], true)
		last = loc[1]
	}
	if last < len(s) {
		fn(s[last:], false)
	}
}

func mergeText(in []Segment) []Segment {
	out := in[:0]
	for _, seg := range in {
		if seg.Kind == SegmentText && len(out) > 0 && out[len(out)-1].Kind == SegmentText {
			out[len(out)-1].Value += seg.Value
			continue
		}
		out = append(out, seg)
	}
	return out
}

// Addresses returns the address segments of segs in order.
func Addresses(segs []Segment) []string {
	var out []string
	for _, s := range segs {
		if s.Kind == SegmentAddress {
			out = append(out, s.Value)
		}
	}
	return out
}

// TxHashes returns the transaction hash segments of segs in order.
func TxHashes(segs []Segment) []string {
	var out []string
	for _, s := range segs {
		if s.Kind == SegmentTxHash {
			out = append(out, s.Value)
		}
	}
	return out
}
