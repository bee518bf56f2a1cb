// Package typosquat flags hostnames that imitate well-known brands.
//
// Two independent pattern families are checked. The variant table lists exact
// confusable spellings per brand; the substitution patterns are broader
// per-brand expressions that accept any digit/letter confusable. Each family
// contributes a fixed amount at most once, however many brands match, so a
// host can score 0, 15 or 30.
package typosquat

import (
	"regexp"
	"sort"
	"strings"

	"phishguard/internal/domain"
)

const (
	VariantScore      = 15
	SubstitutionScore = 15

	IssueVariant      = "possible typosquatting"
	IssueSubstitution = "suspicious character substitution"
)

// variants maps a brand to spellings that render like it. Upper-case I for l
// collapses to i once hosts are lower-cased.
var variants = map[string][]string{
	"google":    {"g00gle", "go0gle", "g0ogle", "googie", "gooogle", "googel"},
	"facebook":  {"faceb00k", "faceb0ok", "facebo0k", "facebok", "faecbook"},
	"amazon":    {"amaz0n", "arnazon", "amazom", "amazonn"},
	"paypal":    {"paypai", "paypa1", "payppal", "paypall", "pavpal"},
	"apple":     {"appie", "app1e", "appple", "apqle"},
	"twitter":   {"tw1tter", "twltter", "twiter", "twittter"},
	"netflix":   {"netfiix", "netf1ix", "netfllx", "nettflix"},
	"microsoft": {"rnicrosoft", "m1crosoft", "micros0ft", "microsft"},
	"youtube":   {"y0utube", "youtub3", "yotube", "youttube"},
}

type substitution struct {
	brand string
	re    *regexp.Regexp
}

// substitutions accept any mix of common confusables per letter; the genuine
// brand also matches and is excluded at match time.
var substitutions = []substitution{
	{"google", regexp.MustCompile(`g[o0]{2,3}g[l1i]e`)},
	{"facebook", regexp.MustCompile(`faceb[o0]{2}k`)},
	{"amazon", regexp.MustCompile(`(?:am|arn)az[o0]n`)},
	{"paypal", regexp.MustCompile(`p[a4]yp[a4][l1i]`)},
	{"apple", regexp.MustCompile(`[a4]pp[l1i]e`)},
	{"twitter", regexp.MustCompile(`tw[i1l]tter`)},
	{"netflix", regexp.MustCompile(`netf[l1i][i1l]x`)},
	{"microsoft", regexp.MustCompile(`(?:m|rn)[i1l]cr[o0]s[o0]ft`)},
	{"youtube", regexp.MustCompile(`y[o0]utub[e3]`)},
	{"instagram", regexp.MustCompile(`[i1l]nst[a4]gr[a4]m`)},
	{"linkedin", regexp.MustCompile(`[l1i][i1l]nked[i1l]n`)},
}

// Detect scores host against both pattern families.
func Detect(host string) domain.TyposquatFinding {
	h := strings.ToLower(host)
	var finding domain.TyposquatFinding
	matched := map[string]struct{}{}

	if brands := variantBrands(h); len(brands) > 0 {
		finding.Score += VariantScore
		finding.Issues = append(finding.Issues, IssueVariant)
		for _, b := range brands {
			matched[b] = struct{}{}
		}
	}
	if brands := substitutionBrands(h); len(brands) > 0 {
		finding.Score += SubstitutionScore
		finding.Issues = append(finding.Issues, IssueSubstitution)
		for _, b := range brands {
			matched[b] = struct{}{}
		}
	}

	for b := range matched {
		finding.Matches = append(finding.Matches, b)
	}
	sort.Strings(finding.Matches)
	return finding
}

func variantBrands(host string) []string {
	var out []string
	for brand, spellings := range variants {
		for _, s := range spellings {
			if strings.Contains(host, s) {
				out = append(out, brand)
				break
			}
		}
	}
	return out
}

func substitutionBrands(host string) []string {
	var out []string
	for _, s := range substitutions {
		for _, m := range s.re.FindAllString(host, -1) {
			if m != s.brand {
				out = append(out, s.brand)
				break
			}
		}
	}
	return out
}
