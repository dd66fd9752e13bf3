// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package comments

import (
	"time"

	"golang.org/x/text/language"
)

// supported lists the locales with a dedicated timestamp layout. The first
// entry is the fallback.
var supported = []language.Tag{
	language.AmericanEnglish,
	language.BritishEnglish,
	language.Bulgarian,
	language.German,
	language.French,
	language.Spanish,
}

var layouts = map[language.Tag]string{
	language.AmericanEnglish: "Jan 2, 2006, 3:04 PM",
	language.BritishEnglish:  "2 Jan 2006, 15:04",
	language.Bulgarian:       "02.01.2006 г., 15:04",
	language.German:          "02.01.2006, 15:04",
	language.French:          "02/01/2006 15:04",
	language.Spanish:         "2/1/2006, 15:04",
}

var matcher = language.NewMatcher(supported)

// MatchLocale picks the best supported locale for an Accept-Language
// header value.
func MatchLocale(acceptLanguage string) language.Tag {
	prefs, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(prefs) == 0 {
		return supported[0]
	}
	_, idx, _ := matcher.Match(prefs...)
	return supported[idx]
}

// FormatTime renders t in the given locale, in t's own time zone.
func FormatTime(t time.Time, locale language.Tag) string {
	if t.IsZero() {
		return ""
	}
	layout, ok := layouts[locale]
	if !ok {
		base, _ := locale.Base()
		for tag, l := range layouts {
			if b, _ := tag.Base(); b == base {
				layout, ok = l, true
				break
			}
		}
	}
	if !ok {
		layout = layouts[supported[0]]
	}
	return t.Format(layout)
}
