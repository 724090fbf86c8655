// --------------------------------------------------------------------------------
// Author: Thomas F McGeehan V
//
// This file is part of a software project developed by Thomas F McGeehan V.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
//
// For more information about the MIT License, please visit:
// https://opensource.org/licenses/MIT
//
// Acknowledgment appreciated but not required.
// --------------------------------------------------------------------------------

package standardizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	organAliases = map[string]string{
		"kidneys":     "kidney",
		"renal":       "kidney",
		"livers":      "liver",
		"hepatic":     "liver",
		"hearts":      "heart",
		"lung":        "lungs",
		"pulmonary":   "lungs",
		"pancreases":  "pancreas",
		"intestines":  "intestine",
		"bowel":       "intestine",
		"small bowel": "intestine",
		"corneas":     "cornea",
		"bones":       "bone",
		"bone marrow": "bone",
	}

	rhSuffixes = map[string]string{
		"+":        "+",
		"-":        "-",
		"pos":      "+",
		"positive": "+",
		"neg":      "-",
		"negative": "-",
	}

	titleCaser = cases.Title(language.English)
)

// Text trims, collapses inner whitespace and lowercases a free-form value.
func Text(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// City returns the canonical display form of a city or state name.
func City(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}
	return titleCaser.String(s)
}

// SameCity reports whether two city values name the same non-empty place.
func SameCity(a, b string) bool {
	a, b = Text(a), Text(b)
	return a != "" && a == b
}

// BloodType maps spellings such as "a pos", "AB Negative" or "o-" onto the
// canonical ABO/Rh form ("A+", "AB-", "O-"). Unrecognised input yields "".
func BloodType(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '_' || r == '.' {
			return -1
		}
		return r
	}, s)

	var group string
	for _, g := range []string{"ab", "a", "b", "o", "0"} {
		if strings.HasPrefix(s, g) {
			group = g
			break
		}
	}
	if group == "" {
		return ""
	}
	rh, ok := rhSuffixes[strings.TrimPrefix(s, group)]
	if !ok {
		return ""
	}
	if group == "0" {
		group = "o"
	}
	return strings.ToUpper(group) + rh
}

// Organ returns the canonical organ tag for s.
func Organ(s string) string {
	s = Text(s)
	if canonical, ok := organAliases[s]; ok {
		return canonical
	}
	return s
}
