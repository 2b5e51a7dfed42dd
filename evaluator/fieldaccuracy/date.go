//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package fieldaccuracy

import (
	"strings"
	"time"
)

// defaultDateFormats are the accepted date layouts, tried in order. Slash
// dates resolve month-first; day-first still parses when the month position
// is out of range (13/01/2025). The list is overridable per evaluator with
// the date_formats config key.
var defaultDateFormats = []string{
	"2006-01-02",
	time.RFC3339,
	"01/02/2006",
	"02/01/2006",
	"2-Jan-2006",
	"02-Jan-2006",
	"January 2, 2006",
	"2 January 2006",
}

// parseDate parses a date string into its calendar day using the given
// layouts. Month names are case-normalized first, so 15-JAN-2025 and
// 15-jan-2025 both parse.
func parseDate(s string, formats []string) (string, bool) {
	text := normalizeMonthCase(strings.TrimSpace(s))
	for _, layout := range formats {
		t, err := time.Parse(layout, text)
		if err != nil {
			continue
		}
		return t.Format("2006-01-02"), true
	}
	return "", false
}

// normalizeMonthCase title-cases alphabetic runs so Go's month-name layouts
// match regardless of input casing.
func normalizeMonthCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	wordStart := true
	for i := 0; i < len(s); i++ {
		ch := s[i]
		isAlpha := (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
		switch {
		case isAlpha && wordStart:
			if ch >= 'a' && ch <= 'z' {
				ch -= 'a' - 'A'
			}
			wordStart = false
		case isAlpha:
			if ch >= 'A' && ch <= 'Z' {
				ch += 'a' - 'A'
			}
		default:
			wordStart = true
		}
		b.WriteByte(ch)
	}
	return b.String()
}
