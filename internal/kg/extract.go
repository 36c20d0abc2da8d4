package kg

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	originalTextLabel = "original text:"
	tokensLabel       = "total tokens:"
	modelOutputLabel  = "deepseek-v3 output:"
)

var (
	// The description field is scanned by hand in ExtractEntities because
	// the record must be followed by end of line or another record, which
	// RE2 cannot express as a lookahead.
	entityHead = regexp.MustCompile(`\("entity"\s*\|([^|]*)\|([^|]*)\|`)

	relationshipRecord = regexp.MustCompile(
		`\("relationship"\s*\|\s*([^|]*?)\s*\|\s*([^|]*?)\s*\|\s*([^|]*?)\s*\|\s*(\d+)\s*\|\s*([^)]*?)\s*\)`)
)

// ExtractOriginalText returns the trimmed text following "original text:"
// up to the token count label, the model output label, or the end of the
// segment. ok is false when the label is absent.
func ExtractOriginalText(seg string) (text string, ok bool) {
	start := strings.Index(seg, originalTextLabel)
	if start < 0 {
		return "", false
	}
	rest := seg[start+len(originalTextLabel):]

	end := len(rest)
	for _, label := range []string{tokensLabel, modelOutputLabel} {
		if i := strings.Index(rest, label); i >= 0 && i < end {
			end = i
		}
	}
	return strings.TrimSpace(rest[:end]), true
}

// ExtractEntities returns every well-formed entity record in seg, in order.
// Records with the wrong shape are skipped without notice.
func ExtractEntities(seg, sourceID string) []Entity {
	var entities []Entity
	pos := 0
	for pos < len(seg) {
		loc := entityHead.FindStringSubmatchIndex(seg[pos:])
		if loc == nil {
			break
		}
		head := pos + loc[0]
		// The description may start on a later line; the record close
		// must then be on that line.
		descStart := skipSpace(seg, pos+loc[1])

		closeAt, ok := findRecordClose(seg, descStart)
		if !ok {
			pos = head + 1
			continue
		}

		entities = append(entities, Entity{
			EntityName:  strings.TrimSpace(seg[pos+loc[2] : pos+loc[3]]),
			EntityType:  strings.TrimSpace(seg[pos+loc[4] : pos+loc[5]]),
			Description: strings.TrimSpace(seg[descStart:closeAt]),
			SourceID:    sourceID,
		})
		pos = closeAt + 1
	}
	return entities
}

// findRecordClose finds the first ')' on the current line that ends a
// record: one followed only by whitespace up to a line break or the end of
// input, or by whitespace and the next '('.
func findRecordClose(s string, from int) (int, bool) {
	lineEnd := strings.IndexByte(s[from:], '\n')
	if lineEnd < 0 {
		lineEnd = len(s)
	} else {
		lineEnd += from
	}

	for i := from; i < lineEnd; i++ {
		if s[i] != ')' {
			continue
		}
		if closesRecord(s, i+1) {
			return i, true
		}
	}
	return 0, false
}

func skipSpace(s string, from int) int {
	for from < len(s) {
		switch s[from] {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			from++
		default:
			return from
		}
	}
	return from
}

func closesRecord(s string, at int) bool {
	for j := at; j < len(s); j++ {
		switch s[j] {
		case '\n':
			return true
		case ' ', '\t', '\r', '\f', '\v':
			continue
		case '(':
			return true
		default:
			return false
		}
	}
	return true
}

// ExtractRelationships returns every well-formed relationship record in seg,
// in order. The weight must be an unsigned integer literal.
func ExtractRelationships(seg, sourceID string) []Relationship {
	matches := relationshipRecord.FindAllStringSubmatch(seg, -1)
	relationships := make([]Relationship, 0, len(matches))
	for _, m := range matches {
		weight, err := strconv.ParseFloat(m[4], 64)
		if err != nil {
			continue
		}
		relationships = append(relationships, Relationship{
			SrcID:       strings.TrimSpace(m[1]),
			TgtID:       strings.TrimSpace(m[2]),
			Description: strings.TrimSpace(m[3]),
			Weight:      weight,
			Keywords:    strings.TrimSpace(m[5]),
			SourceID:    sourceID,
		})
	}
	return relationships
}
